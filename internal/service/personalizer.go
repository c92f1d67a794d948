package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/draftforge/pipeline-api/internal/core"
	"github.com/draftforge/pipeline-api/internal/domain/model"
)

// Generic fallbacks used when no profile signal is available or the profile
// lookup itself fails. Personalization never fails the enclosing pipeline.
const (
	genericTopic = "Professional insights and lessons from your field"
	genericAngle = "Professional Experience Insights"
)

// goalAngles maps a stated primary goal to a content angle. Unmapped goals
// pass through as "{goal} Perspective".
var goalAngles = map[string]string{
	"thought leadership": "Industry Thought Leadership",
	"brand awareness":    "Brand Story Spotlight",
	"lead generation":    "Customer Value Insights",
	"networking":         "Community Connection",
	"hiring":             "Team Culture Showcase",
}

// roleAngles maps role substrings to angles, checked in order.
var roleAngles = []struct {
	substr string
	angle  string
}{
	{"founder", "Entrepreneurial Perspective"},
	{"ceo", "Executive Leadership View"},
	{"engineer", "Technical Deep Dive"},
	{"developer", "Technical Deep Dive"},
	{"designer", "Design Thinking Lens"},
	{"marketer", "Growth Strategy Angle"},
	{"marketing", "Growth Strategy Angle"},
	{"sales", "Customer Conversation Insights"},
	{"coach", "Practical Coaching Advice"},
	{"consultant", "Advisory Playbook"},
}

// Personalization is the derived topic/angle pair consumed by the pacing
// pipeline before briefing.
type Personalization struct {
	Topic string `json:"topic"`
	Angle string `json:"angle"`
}

// PersonalizerOptions groups dependencies for Personalizer.
type PersonalizerOptions struct {
	Profiles core.ProfileRepository // Required: creator profile reads
	Logger   *slog.Logger           // Optional: structured logger
	Intn     func(n int) int        // Optional: random source override for tests
}

// Personalizer derives a topic and angle for a generation request from the
// user's creator profile and enrichment context. It is a pure
// read-and-derive component: it never mutates persisted state and never
// returns an error to its caller.
type Personalizer struct {
	profiles core.ProfileRepository
	logger   *slog.Logger
	intn     func(n int) int
}

// NewPersonalizer constructs a Personalizer.
func NewPersonalizer(opts PersonalizerOptions) *Personalizer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	intn := opts.Intn
	if intn == nil {
		intn = rand.Intn
	}
	return &Personalizer{
		profiles: opts.Profiles,
		logger:   logger.With("component", "personalizer"),
		intn:     intn,
	}
}

// Derive computes the topic and angle for a user. Priority order for topic:
// configured content pillars, then a recent knowledge-base file, then
// profile skills, then a role-based template. Angle follows the goal table,
// then pillars, then the role table. A recent meeting in the enrichment
// context overrides both. Any internal failure falls back to the generic
// defaults with a logged warning.
func (p *Personalizer) Derive(ctx context.Context, userID string, enrichment *model.EnrichmentContext) Personalization {
	out := Personalization{Topic: genericTopic, Angle: genericAngle}

	profile, err := p.profiles.GetByUserID(ctx, userID)
	if err != nil {
		p.logger.WarnContext(ctx, "profile lookup failed, using generic personalization",
			"user_id", userID, "error", err)
		profile = nil
	}

	if profile != nil {
		out.Topic = p.deriveTopic(profile, enrichment)
		out.Angle = p.deriveAngle(profile)
	} else if enrichment != nil {
		if file := enrichment.KnowledgeBase.RecentFile(); file != nil {
			out.Topic = knowledgeFileTopic(file)
		}
	}

	if enrichment != nil && enrichment.Meetings.HasMeetings() {
		meeting := mostRecentMeeting(enrichment.Meetings)
		out.Topic = fmt.Sprintf("Reflections from your recent meeting: %s", meeting.Title)
		if angle := meetingAngle(meeting); angle != "" {
			out.Angle = angle
		}
	}

	return out
}

func (p *Personalizer) deriveTopic(profile *model.CreatorProfile, enrichment *model.EnrichmentContext) string {
	if len(profile.Pillars) > 0 {
		pillar := profile.Pillars[p.intn(len(profile.Pillars))]
		if pillar.Description == "" {
			return pillar.Name
		}
		return fmt.Sprintf("%s: %s", pillar.Name, pillar.Description)
	}

	if enrichment != nil {
		if file := enrichment.KnowledgeBase.RecentFile(); file != nil {
			return knowledgeFileTopic(file)
		}
	}

	if skills := profile.TopSkills(3); len(skills) > 0 {
		role := profile.Role
		if role == "" {
			role = "professional"
		}
		return fmt.Sprintf("How a %s applies %s in practice", role, strings.Join(skills, ", "))
	}

	if profile.Role != "" {
		return fmt.Sprintf("Lessons learned working as a %s", profile.Role)
	}
	return genericTopic
}

func (p *Personalizer) deriveAngle(profile *model.CreatorProfile) string {
	if goal := strings.TrimSpace(profile.PrimaryGoal); goal != "" {
		if angle, ok := goalAngles[strings.ToLower(goal)]; ok {
			return angle
		}
		return fmt.Sprintf("%s Perspective", goal)
	}

	if len(profile.Pillars) > 0 {
		pillar := profile.Pillars[p.intn(len(profile.Pillars))]
		return fmt.Sprintf("%s Insights", pillar.Name)
	}

	role := strings.ToLower(profile.Role)
	for _, entry := range roleAngles {
		if strings.Contains(role, entry.substr) {
			return entry.angle
		}
	}
	return genericAngle
}

func knowledgeFileTopic(file *model.KnowledgeFile) string {
	return fmt.Sprintf("Key takeaways from %s", file.Name)
}

func mostRecentMeeting(mc *model.MeetingContext) model.MeetingSummary {
	recent := mc.Meetings[0]
	for _, m := range mc.Meetings[1:] {
		if m.HeldAt.After(recent.HeldAt) {
			recent = m
		}
	}
	return recent
}

func meetingAngle(meeting model.MeetingSummary) string {
	subjects := meeting.Subjects
	if len(subjects) == 0 {
		return ""
	}
	if len(subjects) == 1 {
		return fmt.Sprintf("Perspectives on %s", subjects[0])
	}
	return fmt.Sprintf("Perspectives on %s and %s", subjects[0], subjects[1])
}
