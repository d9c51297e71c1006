package usecase

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-interview-orchestrator/internal/domain"
	"github.com/fairyhunter13/ai-interview-orchestrator/internal/observability"
	"github.com/fairyhunter13/ai-interview-orchestrator/pkg/textx"
)

// Topic labels detected in prior interviewer turns. Used so the composer does
// not circle back to ground already covered.
const (
	topicTechnical = "technical skills"
	topicProjects  = "projects"
	topicTeamwork  = "teamwork"
	topicCareer    = "career goals"
)

var topicKeywords = map[string][]string{
	topicTechnical: {"technical", "technology", "technologies", "programming", "language", "framework", "stack", "tools"},
	topicProjects:  {"project", "built", "implemented", "developed", "shipped"},
	topicTeamwork:  {"team", "collaborate", "collaboration", "colleague", "conflict", "communicate"},
	topicCareer:    {"career", "goal", "goals", "future", "motivat", "why do you want"},
}

var emotionalFollowups = map[string][]string{
	"nervous": {
		"No need to be nervous, you're doing well. Take your time: what part of your experience are you most confident about?",
		"That's completely understandable. Let's keep it simple: tell me about a piece of work you're proud of.",
	},
	"excited": {
		"I can hear the enthusiasm. What is it about that work that energizes you the most?",
		"That excitement comes through clearly. Which part of this role are you most looking forward to?",
	},
	"frustrated": {
		"Challenges like that teach a lot. How did you work through that frustration?",
		"That sounds like a tough situation. What would you do differently next time?",
	},
}

var bandFollowups = [][]string{
	// question_count <= 2: technical background
	{
		"Could you walk me through your technical background and the tools you use most day to day?",
		"Which technologies do you feel strongest in, and how did you build that depth?",
	},
	// 3-4: past projects
	{
		"Tell me about a project you're particularly proud of. What was your specific contribution?",
		"Describe a recent project that challenged you. What made it difficult?",
	},
	// 5-6: collaboration
	{
		"How do you usually work with teammates when priorities conflict?",
		"Tell me about a time you had to bring a team along with a decision they initially disagreed with.",
	},
	// >= 7: career motivation
	{
		"Where do you see your career heading, and how does this role fit into that?",
		"What motivates you to do your best work, and what are you looking for in your next position?",
	},
}

// FollowupComposer produces the next interviewer question: an LLM call with a
// deterministic rule ladder behind it. It never returns an error; a failed
// upstream call degrades to the ladder.
type FollowupComposer struct {
	Gen     domain.FollowupGenerator
	CharCap int
}

// NewFollowupComposer constructs a composer; charCap <= 0 falls back to 350.
func NewFollowupComposer(gen domain.FollowupGenerator, charCap int) FollowupComposer {
	if charCap <= 0 {
		charCap = 350
	}
	return FollowupComposer{Gen: gen, CharCap: charCap}
}

// Compose returns the next question for the session given the candidate's
// latest message.
func (c FollowupComposer) Compose(ctx domain.Context, s *domain.InterviewSession, latest string) string {
	if c.Gen != nil {
		summary := c.ContextSummary(s)
		ic := domain.InterviewContext{
			SessionKey:     s.SessionKey,
			CandidateName:  s.CandidateName,
			JobTitle:       s.JobTitle,
			CompanyName:    s.CompanyName,
			ResumeText:     s.ResumeText,
			JobDescription: s.JobDescription,
			JobLocation:    s.JobLocation,
		}
		q, err := c.Gen.GenerateFollowup(ctx, ic, summary, latest)
		if err == nil && strings.TrimSpace(q) != "" {
			return c.finish(q)
		}
		if err != nil {
			observability.LoggerFromContext(ctx).Warn("followup generation failed, using rule ladder",
				"session_key", s.SessionKey, "error", err)
		}
	}
	return c.finish(c.ruleFollowup(s, latest))
}

// ContextSummary builds a compact prompt context: the last three candidate
// responses plus the topics already covered by past interviewer turns.
func (c FollowupComposer) ContextSummary(s *domain.InterviewSession) string {
	var b strings.Builder
	recent := s.LastCandidateMessages(3)
	if len(recent) > 0 {
		b.WriteString("Recent candidate responses:\n")
		for _, m := range recent {
			b.WriteString("- ")
			b.WriteString(textx.TruncateAtSentence(m, 200))
			b.WriteString("\n")
		}
	}
	covered := coveredTopics(s)
	if len(covered) > 0 {
		b.WriteString("Topics already covered: ")
		b.WriteString(strings.Join(covered, ", "))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "This is question %d of the interview.", s.QuestionCount)
	return b.String()
}

// ruleFollowup is the deterministic fallback ladder: emotional keywords in the
// latest reply win, then the question-count band selects a prepared template.
func (c FollowupComposer) ruleFollowup(s *domain.InterviewSession, latest string) string {
	lower := strings.ToLower(latest)
	for _, emotion := range []string{"nervous", "excited", "frustrated"} {
		if strings.Contains(lower, emotion) {
			opts := emotionalFollowups[emotion]
			return opts[s.QuestionCount%len(opts)]
		}
	}
	band := 0
	switch {
	case s.QuestionCount <= 2:
		band = 0
	case s.QuestionCount <= 4:
		band = 1
	case s.QuestionCount <= 6:
		band = 2
	default:
		band = 3
	}
	opts := bandFollowups[band]
	return opts[s.QuestionCount%len(opts)]
}

func (c FollowupComposer) finish(q string) string {
	q = textx.SanitizeText(q)
	q = textx.TruncateAtSentence(q, c.CharCap)
	return textx.EnsureTerminalPunctuation(q)
}

func coveredTopics(s *domain.InterviewSession) []string {
	seen := map[string]bool{}
	for _, t := range s.ConversationHistory {
		if t.Speaker != domain.SpeakerInterviewer {
			continue
		}
		lower := strings.ToLower(t.Message)
		for topic, words := range topicKeywords {
			if seen[topic] {
				continue
			}
			for _, w := range words {
				if strings.Contains(lower, w) {
					seen[topic] = true
					break
				}
			}
		}
	}
	// stable order
	out := make([]string, 0, 4)
	for _, topic := range []string{topicTechnical, topicProjects, topicTeamwork, topicCareer} {
		if seen[topic] {
			out = append(out, topic)
		}
	}
	return out
}
