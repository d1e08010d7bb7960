package core

// Workspace owns scratch memory reused across repeated same-shape filter calls.
// The blur uses Scratch as its horizontal-sum buffer.
//
// A Workspace is owned by the caller of the pipeline and must not be shared by
// two filter calls that are in flight at the same time.
type Workspace struct {
	width       int
	height      int
	scratch     []int
	allocations int
}

// NewWorkspace returns an empty workspace. Call EnsureSize before use.
func NewWorkspace() *Workspace {
	return &Workspace{}
}

// EnsureSize resizes the scratch buffer to width*height when the shape changed.
// It reports whether a reallocation happened.
func (ws *Workspace) EnsureSize(width, height int) bool {
	if width == ws.width && height == ws.height && ws.scratch != nil {
		return false
	}

	ws.width = width
	ws.height = height
	ws.scratch = make([]int, width*height)
	ws.allocations++
	return true
}

// Scratch returns the scratch buffer, sized to the last EnsureSize call.
func (ws *Workspace) Scratch() []int {
	return ws.scratch
}

// Size returns the shape the workspace is currently sized for.
func (ws *Workspace) Size() (width, height int) {
	return ws.width, ws.height
}

// Allocations returns how many times the scratch buffer has been allocated.
func (ws *Workspace) Allocations() int {
	return ws.allocations
}
