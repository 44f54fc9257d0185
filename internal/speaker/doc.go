// Package speaker resolves flushed speech segments to a speaker identity.
// Attribution uses the platform metadata captured with the segment's last
// frame and a fixed confidence heuristic, and tracks speaker transitions.
package speaker
