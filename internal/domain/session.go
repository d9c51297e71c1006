package domain

// AppendTurn records a turn and trims the history head when it exceeds cap.
// cap <= 0 disables trimming.
func (s *InterviewSession) AppendTurn(t Turn, cap int) {
	s.ConversationHistory = append(s.ConversationHistory, t)
	if cap > 0 && len(s.ConversationHistory) > cap {
		drop := len(s.ConversationHistory) - cap
		s.ConversationHistory = s.ConversationHistory[drop:]
	}
}

// CandidateTurnCount counts candidate turns in the retained history.
func (s *InterviewSession) CandidateTurnCount() int {
	n := 0
	for _, t := range s.ConversationHistory {
		if t.Speaker == SpeakerCandidate {
			n++
		}
	}
	return n
}

// LastCandidateMessages returns up to n most recent candidate messages,
// oldest first.
func (s *InterviewSession) LastCandidateMessages(n int) []string {
	if n <= 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := len(s.ConversationHistory) - 1; i >= 0 && len(out) < n; i-- {
		if s.ConversationHistory[i].Speaker == SpeakerCandidate {
			out = append(out, s.ConversationHistory[i].Message)
		}
	}
	// reverse to chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
