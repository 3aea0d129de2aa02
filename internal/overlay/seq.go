package overlay

// parClip returns the clip duration a par contributes to the document
// timeline. ok is false when the par has no audio or its text belongs to a
// different spine item reusing the same SMIL file.
func (m *Model) parClip(id NodeID) (float64, bool) {
	par, isPar := m.Par(id)
	if !isPar {
		return 0, false
	}
	audio, hasAudio := m.Audio(par.Audio)
	if !hasAudio {
		return 0, false
	}
	if text, hasText := m.Text(par.Text); hasText {
		if text.ManifestItemID == "" || text.ManifestItemID != m.SpineItemID {
			return 0, false
		}
	}
	return audio.ClipDurationMilliseconds(), true
}

// Qualifies reports whether the par contributes to the document timeline.
func (m *Model) Qualifies(par NodeID) bool {
	_, ok := m.parClip(par)
	return ok
}

// DurationMilliseconds returns the accumulated clip duration of a seq
// subtree. It returns 0 for nodes that are not seqs.
func (m *Model) DurationMilliseconds(seq NodeID) float64 {
	return m.duration(seq, 0)
}

// duration adds clips to total in document order, the same running sum
// clipOffset and parallelAt build, so the end of one par is the start of
// the next bit for bit.
func (m *Model) duration(seq NodeID, total float64) float64 {
	s, ok := m.Seq(seq)
	if !ok {
		return total
	}

	for _, child := range s.Children {
		switch m.nodes[child].Kind {
		case KindPar:
			if clip, ok := m.parClip(child); ok {
				total += clip
			}
		case KindSeq:
			total = m.duration(child, total)
		}
	}
	return total
}

// clipOffset walks the seq depth-first, adding qualifying clip durations to
// offset until target is reached. The returned offset is only meaningful
// when found is true.
func (m *Model) clipOffset(seq, target NodeID, offset float64) (float64, bool) {
	s, ok := m.Seq(seq)
	if !ok {
		return offset, false
	}

	for _, child := range s.Children {
		switch m.nodes[child].Kind {
		case KindPar:
			if child == target {
				return offset, true
			}
			if clip, ok := m.parClip(child); ok {
				offset += clip
			}
		case KindSeq:
			var found bool
			offset, found = m.clipOffset(child, target, offset)
			if found {
				return offset, true
			}
		}
	}
	return offset, false
}

// SeqClipOffset returns the start offset of target relative to the start of
// seq.
func (m *Model) SeqClipOffset(seq, target NodeID) (float64, bool) {
	offset, found := m.clipOffset(seq, target, 0)
	if !found {
		return 0, false
	}
	return offset, true
}

// SeqParallelAt returns the par of the seq subtree playing at timeMs. Clip
// spans are half-open so that a par's own clip offset maps back to it; the
// instant at which the subtree ends belongs to its last audible par.
func (m *Model) SeqParallelAt(seq NodeID, timeMs float64) (NodeID, bool) {
	found, end := m.parallelAt(seq, timeMs, 0)
	if found != NoNode {
		return found, true
	}
	if end > 0 && timeMs == end {
		if last := m.lastAudible(seq); last != NoNode {
			return last, true
		}
	}
	return NoNode, false
}

// parallelAt accumulates offset exactly as clipOffset does, so the span
// bounds it compares against are the same sums clipOffset reports.
func (m *Model) parallelAt(seq NodeID, timeMs, offset float64) (NodeID, float64) {
	s, ok := m.Seq(seq)
	if !ok {
		return NoNode, offset
	}

	for _, child := range s.Children {
		switch m.nodes[child].Kind {
		case KindPar:
			clip, ok := m.parClip(child)
			if !ok {
				continue
			}
			end := offset + clip
			if clip > 0 && timeMs < end {
				return child, offset
			}
			offset = end
		case KindSeq:
			var found NodeID
			found, offset = m.parallelAt(child, timeMs, offset)
			if found != NoNode {
				return found, offset
			}
		}
	}
	return NoNode, offset
}

// lastAudible returns the last par in document order with a positive clip.
func (m *Model) lastAudible(seq NodeID) NodeID {
	s, ok := m.Seq(seq)
	if !ok {
		return NoNode
	}
	for i := len(s.Children) - 1; i >= 0; i-- {
		child := s.Children[i]
		switch m.nodes[child].Kind {
		case KindPar:
			if clip, ok := m.parClip(child); ok && clip > 0 {
				return child
			}
		case KindSeq:
			if found := m.lastAudible(child); found != NoNode {
				return found
			}
		}
	}
	return NoNode
}

// nthParallel counts every par visited in document order, starting from
// count, and returns the par whose increment makes the counter equal
// target together with the updated counter.
func (m *Model) nthParallel(seq NodeID, target, count int) (NodeID, int) {
	s, ok := m.Seq(seq)
	if !ok {
		return NoNode, count
	}

	for _, child := range s.Children {
		switch m.nodes[child].Kind {
		case KindPar:
			count++
			if count == target {
				return child, count
			}
		case KindSeq:
			var found NodeID
			found, count = m.nthParallel(child, target, count)
			if found != NoNode {
				return found, count
			}
		}
	}
	return NoNode, count
}

// SeqNthParallel returns the par whose ordinal, counted from base, equals
// target within the seq subtree. The first par visited gets ordinal base+1.
func (m *Model) SeqNthParallel(seq NodeID, target, base int) (NodeID, bool) {
	found, _ := m.nthParallel(seq, target, base)
	return found, found != NoNode
}

// ParallelCount returns the number of pars in the seq subtree.
func (m *Model) ParallelCount(seq NodeID) int {
	_, count := m.nthParallel(seq, -1, 0) // counts start at 1, never match
	return count
}
