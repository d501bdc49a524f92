// Package preview renders throwaway review artifacts from the current
// deletion plan and keeps them in sync with plan edits. A preview never
// replaces the source audio; committing a plan always rebuilds from the
// original.
package preview
