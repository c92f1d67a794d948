package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/draftforge/pipeline-api/internal/domain/model"
	"github.com/draftforge/pipeline-api/internal/mocks"
	"github.com/draftforge/pipeline-api/internal/testutil"
)

func newTestPersonalizer(profiles *mocks.MockProfileRepository) *Personalizer {
	return NewPersonalizer(PersonalizerOptions{
		Profiles: profiles,
		Intn:     func(int) int { return 0 },
	})
}

func TestDerivePillarTopicWinsOverSkills(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	profiles := mocks.NewMockProfileRepository(ctrl)
	profile := testutil.NewProfile().
		WithPillars(model.ContentPillar{Name: "Platform Engineering", Description: "Building internal platforms"}).
		WithSkills("Go", "Kubernetes").
		WithPrimaryGoal("").
		Build()
	profiles.EXPECT().GetByUserID(gomock.Any(), "user-1").Return(profile, nil)

	p := newTestPersonalizer(profiles)
	out := p.Derive(context.Background(), "user-1", nil)

	assert.Equal(t, "Platform Engineering: Building internal platforms", out.Topic)
}

func TestDeriveKnowledgeFileTopicWhenNoPillars(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	profiles := mocks.NewMockProfileRepository(ctrl)
	profile := testutil.NewProfile().WithPillars().WithSkills("Go").Build()
	profiles.EXPECT().GetByUserID(gomock.Any(), "user-1").Return(profile, nil)

	enrichment := &model.EnrichmentContext{
		KnowledgeBase: &model.KnowledgeBaseContext{Files: []model.KnowledgeFile{
			{Name: "q3-strategy.pdf", Extracted: true, UploadedAt: testutil.TestTime()},
		}},
	}

	p := newTestPersonalizer(profiles)
	out := p.Derive(context.Background(), "user-1", enrichment)

	assert.Equal(t, "Key takeaways from q3-strategy.pdf", out.Topic)
}

func TestDeriveSkillsTopic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	profiles := mocks.NewMockProfileRepository(ctrl)
	profile := testutil.NewProfile().
		WithRole("Product Manager").
		WithSkills("roadmapping", "user research", "analytics", "stakeholder management").
		Build()
	profiles.EXPECT().GetByUserID(gomock.Any(), "user-1").Return(profile, nil)

	p := newTestPersonalizer(profiles)
	out := p.Derive(context.Background(), "user-1", nil)

	// Only the top three skills feed the topic.
	assert.Equal(t, "How a Product Manager applies roadmapping, user research, analytics in practice", out.Topic)
}

func TestDeriveRoleTopicWhenNoSkills(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	profiles := mocks.NewMockProfileRepository(ctrl)
	profile := testutil.NewProfile().WithRole("Startup Founder").WithSkills().Build()
	profiles.EXPECT().GetByUserID(gomock.Any(), "user-1").Return(profile, nil)

	p := newTestPersonalizer(profiles)
	out := p.Derive(context.Background(), "user-1", nil)

	assert.Equal(t, "Lessons learned working as a Startup Founder", out.Topic)
}

func TestDeriveAngleTable(t *testing.T) {
	tests := []struct {
		name    string
		goal    string
		role    string
		pillars []model.ContentPillar
		want    string
	}{
		{name: "mapped goal", goal: "thought leadership", want: "Industry Thought Leadership"},
		{name: "mapped goal is case insensitive", goal: "Brand Awareness", want: "Brand Story Spotlight"},
		{name: "unmapped goal passes through", goal: "community building", want: "community building Perspective"},
		{
			name:    "pillar angle when no goal",
			pillars: []model.ContentPillar{{Name: "DevOps"}},
			want:    "DevOps Insights",
		},
		{name: "founder role", role: "Co-Founder & CTO", want: "Entrepreneurial Perspective"},
		{name: "engineer role", role: "Staff Software Engineer", want: "Technical Deep Dive"},
		{name: "sales role", role: "VP of Sales", want: "Customer Conversation Insights"},
		{name: "unknown role falls back", role: "Astronaut", want: "Professional Experience Insights"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			profiles := mocks.NewMockProfileRepository(ctrl)
			profile := testutil.NewProfile().
				WithPrimaryGoal(tt.goal).
				WithRole(tt.role).
				WithPillars(tt.pillars...).
				Build()
			profiles.EXPECT().GetByUserID(gomock.Any(), "user-1").Return(profile, nil)

			p := newTestPersonalizer(profiles)
			out := p.Derive(context.Background(), "user-1", nil)

			assert.Equal(t, tt.want, out.Angle)
		})
	}
}

func TestDeriveMeetingOverridesTopicAndAngle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	profiles := mocks.NewMockProfileRepository(ctrl)
	profile := testutil.NewProfile().
		WithPillars(model.ContentPillar{Name: "Platform Engineering"}).
		WithPrimaryGoal("thought leadership").
		Build()
	profiles.EXPECT().GetByUserID(gomock.Any(), "user-1").Return(profile, nil)

	held := testutil.TestTime()
	enrichment := &model.EnrichmentContext{
		Meetings: &model.MeetingContext{Meetings: []model.MeetingSummary{
			{Title: "Old sync", Subjects: []string{"budget"}, HeldAt: held.Add(-48 * time.Hour)},
			{Title: "Q3 planning", Subjects: []string{"roadmap", "hiring"}, HeldAt: held},
		}},
	}

	p := newTestPersonalizer(profiles)
	out := p.Derive(context.Background(), "user-1", enrichment)

	assert.Equal(t, "Reflections from your recent meeting: Q3 planning", out.Topic)
	assert.Equal(t, "Perspectives on roadmap and hiring", out.Angle)
}

func TestDeriveMeetingWithoutSubjectsKeepsProfileAngle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	profiles := mocks.NewMockProfileRepository(ctrl)
	profile := testutil.NewProfile().WithPrimaryGoal("hiring").Build()
	profiles.EXPECT().GetByUserID(gomock.Any(), "user-1").Return(profile, nil)

	enrichment := &model.EnrichmentContext{
		Meetings: &model.MeetingContext{Meetings: []model.MeetingSummary{
			{Title: "All hands", HeldAt: testutil.TestTime()},
		}},
	}

	p := newTestPersonalizer(profiles)
	out := p.Derive(context.Background(), "user-1", enrichment)

	assert.Equal(t, "Reflections from your recent meeting: All hands", out.Topic)
	assert.Equal(t, "Team Culture Showcase", out.Angle)
}

func TestDeriveProfileLookupFailureFallsBackToGeneric(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	profiles := mocks.NewMockProfileRepository(ctrl)
	profiles.EXPECT().GetByUserID(gomock.Any(), "user-1").Return(nil, errors.New("db down"))

	p := newTestPersonalizer(profiles)
	out := p.Derive(context.Background(), "user-1", nil)

	assert.Equal(t, "Professional insights and lessons from your field", out.Topic)
	assert.Equal(t, "Professional Experience Insights", out.Angle)
}

func TestDeriveLookupFailureStillUsesEnrichment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	profiles := mocks.NewMockProfileRepository(ctrl)
	profiles.EXPECT().GetByUserID(gomock.Any(), "user-1").Return(nil, errors.New("db down"))

	enrichment := &model.EnrichmentContext{
		KnowledgeBase: &model.KnowledgeBaseContext{Files: []model.KnowledgeFile{
			{Name: "notes.md", Extracted: true, UploadedAt: testutil.TestTime()},
		}},
	}

	p := newTestPersonalizer(profiles)
	out := p.Derive(context.Background(), "user-1", enrichment)

	assert.Equal(t, "Key takeaways from notes.md", out.Topic)
	assert.Equal(t, "Professional Experience Insights", out.Angle)
}
