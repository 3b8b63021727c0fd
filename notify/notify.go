// Package notify implements the parent back-reference used to propagate
// "needs re-encoding" signals from a mutated node up to its document.
//
// Every mutable model value embeds a Node. Setters call MarkDirty, which
// forwards to the owner; containers set themselves as the owner of their
// children, and a document is the root owner. There is no interception: a
// change is only observed when a setter reports it.
package notify

// Owner receives change notifications from the nodes it owns.
type Owner interface {
	MarkDirty()
}

// Node holds the owner back-reference of a model value.
//
// The zero value is a detached node; MarkDirty on it is a no-op.
type Node struct {
	owner Owner
}

// Owner returns the current owner, or nil when detached.
func (n *Node) Owner() Owner {
	return n.owner
}

// SetOwner attaches the node to owner. A nil owner detaches it.
func (n *Node) SetOwner(owner Owner) {
	n.owner = owner
}

// MarkDirty forwards a change notification to the owner.
func (n *Node) MarkDirty() {
	if n.owner != nil {
		n.owner.MarkDirty()
	}
}

// Flag is a root owner that records whether anything below it changed and
// runs registered callbacks on every change.
type Flag struct {
	dirty     bool
	callbacks []func()
}

// MarkDirty sets the flag and runs the callbacks.
func (f *Flag) MarkDirty() {
	f.dirty = true
	for _, cb := range f.callbacks {
		cb()
	}
}

// Dirty reports whether MarkDirty was called since the last Clear.
func (f *Flag) Dirty() bool {
	return f.dirty
}

// Clear resets the flag without running callbacks.
func (f *Flag) Clear() {
	f.dirty = false
}

// OnChange registers cb to run on every MarkDirty.
func (f *Flag) OnChange(cb func()) {
	if cb != nil {
		f.callbacks = append(f.callbacks, cb)
	}
}
