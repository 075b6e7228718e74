// Copyright 2025 The BI-System Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package datatable

// LayoutObserver is notified around structural row mutations. The two
// calls always come as a pair bracketing the change, so a dependent
// view can capture selection or scroll state before rows move and
// restore it afterwards.
type LayoutObserver interface {
	// LayoutAboutToChange fires before rows are reordered.
	LayoutAboutToChange()

	// LayoutChanged fires after the reorder completed.
	LayoutChanged()
}

// LayoutHook adapts plain functions into a LayoutObserver.
// Either function may be nil.
type LayoutHook struct {
	Before func()
	After  func()
}

// LayoutAboutToChange implements LayoutObserver.
func (h *LayoutHook) LayoutAboutToChange() {
	if h.Before != nil {
		h.Before()
	}
}

// LayoutChanged implements LayoutObserver.
func (h *LayoutHook) LayoutChanged() {
	if h.After != nil {
		h.After()
	}
}

// LayoutNotifier maintains the observer list for an adapter. Embed it
// and call the Notify methods around every row reorder. Registration
// and notification happen on the owner's goroutine.
type LayoutNotifier struct {
	observers []LayoutObserver
}

// AddLayoutObserver registers an observer.
func (n *LayoutNotifier) AddLayoutObserver(o LayoutObserver) {
	if o == nil {
		return
	}
	n.observers = append(n.observers, o)
}

// RemoveLayoutObserver removes a previously registered observer.
func (n *LayoutNotifier) RemoveLayoutObserver(o LayoutObserver) {
	for i, obs := range n.observers {
		if obs == o {
			n.observers = append(n.observers[:i], n.observers[i+1:]...)
			return
		}
	}
}

// NotifyLayoutAboutToChange fires the pre-mutation half of the pair.
func (n *LayoutNotifier) NotifyLayoutAboutToChange() {
	for _, o := range n.observers {
		o.LayoutAboutToChange()
	}
}

// NotifyLayoutChanged fires the post-mutation half of the pair.
func (n *LayoutNotifier) NotifyLayoutChanged() {
	for _, o := range n.observers {
		o.LayoutChanged()
	}
}
