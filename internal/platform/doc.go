// Package platform connects to the remote meeting platform and turns its
// media stream into pipeline-ready PCM frames with speaker metadata.
package platform
