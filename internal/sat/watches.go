package sat

// watcher is a disjunction-clause watcher attached to a literal's list.
// The blocker is a literal cached from the clause; when it is already
// true the clause is satisfied and Propagate can skip it without
// dereferencing the arena.
type watcher struct {
	cref    CRef
	blocker Literal
}

// watchLists holds, per literal, the disjunction clauses currently
// watching it. Clauses are not removed from these lists when freed;
// instead the list is smudged and swept lazily (propagateDisjunctions
// cleans a dirty list before reading it), turning O(#watches) deletes
// into amortized O(1).
type watchLists struct {
	lists []([]watcher)
	dirty []bool
}

func newWatchLists() *watchLists { return &watchLists{} }

func (w *watchLists) expand() {
	w.lists = append(w.lists, nil, nil)
	w.dirty = append(w.dirty, false, false)
}

func (w *watchLists) watch(l Literal, wr watcher) {
	w.lists[l] = append(w.lists[l], wr)
}

func (w *watchLists) get(l Literal) []watcher { return w.lists[l] }

func (w *watchLists) set(l Literal, ws []watcher) { w.lists[l] = ws }

func (w *watchLists) smudge(l Literal) { w.dirty[l] = true }

// cleanAll sweeps every dirty list, dropping watchers whose clause has
// been freed.
func (w *watchLists) cleanAll(a *arena) {
	for l := range w.lists {
		if w.dirty[l] {
			w.clean(Literal(l), a)
		}
	}
}

func (w *watchLists) clean(l Literal, a *arena) {
	ws := w.lists[l]
	j := 0
	for i := 0; i < len(ws); i++ {
		if !a.clauses[ws[i].cref].mark {
			ws[j] = ws[i]
			j++
		}
	}
	w.lists[l] = ws[:j]
	w.dirty[l] = false
}

// relocate rewrites every watcher's CRef through the mapping produced by
// arena.relocAll, dropping watchers whose clause was collected.
func (w *watchLists) relocate(mapping []CRef) {
	for l, ws := range w.lists {
		j := 0
		for _, wr := range ws {
			nr := mapping[wr.cref]
			if nr == CRefUndef {
				continue
			}
			wr.cref = nr
			ws[j] = wr
			j++
		}
		w.lists[l] = ws[:j]
		w.dirty[l] = false
	}
}

// leqWatcher is a LEQ-clause watcher attached to a variable's list. sign
// records whether the literal occurs negated in the clause, letting
// propagation compute is_true without re-deriving it from the literal.
// isDst marks the watcher planted on dst itself: dst's own assignment
// never changes the occurrence counters, but it can still be the event
// that first lets precond/imply be determined (or that turns an already
// crossed threshold into a conflict), so it still needs a watch entry.
type leqWatcher struct {
	cref  CRef
	sign  bool
	isDst bool
}

// leqWatchLists holds, per variable, the LEQ clauses counting that
// variable. Same smudge/cleanAll discipline as watchLists.
type leqWatchLists struct {
	lists [][]leqWatcher
	dirty []bool
}

func newLeqWatchLists() *leqWatchLists { return &leqWatchLists{} }

func (w *leqWatchLists) expand() {
	w.lists = append(w.lists, nil)
	w.dirty = append(w.dirty, false)
}

func (w *leqWatchLists) watch(v int, wr leqWatcher) {
	w.lists[v] = append(w.lists[v], wr)
}

func (w *leqWatchLists) smudge(v int) { w.dirty[v] = true }

func (w *leqWatchLists) cleanAll(a *arena) {
	for v := range w.lists {
		if !w.dirty[v] {
			continue
		}
		ws := w.lists[v]
		j := 0
		for i := 0; i < len(ws); i++ {
			if !a.clauses[ws[i].cref].mark {
				ws[j] = ws[i]
				j++
			}
		}
		w.lists[v] = ws[:j]
		w.dirty[v] = false
	}
}

func (w *leqWatchLists) relocate(mapping []CRef) {
	for v, ws := range w.lists {
		j := 0
		for _, wr := range ws {
			nr := mapping[wr.cref]
			if nr == CRefUndef {
				continue
			}
			wr.cref = nr
			ws[j] = wr
			j++
		}
		w.lists[v] = ws[:j]
		w.dirty[v] = false
	}
}
