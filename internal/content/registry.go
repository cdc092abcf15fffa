package content

import (
	"github.com/debemdeboas/folio/internal/model"
)

const (
	Blogs      model.Kind = "blogs"
	Projects   model.Kind = "projects"
	Challenges model.Kind = "challenges"
	Launches   model.Kind = "launches"
	Tools      model.Kind = "tools"
	Messages   model.Kind = "messages"
)

var (
	ChallengeStatuses = []string{"active", "paused", "completed"}
	LaunchStatuses    = []string{"upcoming", "live", "archived"}
)

var schemas = []*Schema{
	{
		Kind:       Blogs,
		Singular:   "Blog post",
		TitleField: "title",
		HasImage:   true,
		Filters:    []string{"category", "published"},
		Fields: []Field{
			{Name: "title", Type: Text, Required: true},
			{Name: "slug", Type: Slug, Required: true, DerivedFrom: "title"},
			{Name: "excerpt", Type: Text, Required: true, MinLen: 10},
			{Name: "content", Type: LongText, Required: true},
			{Name: "category", Type: Text},
			{Name: "tags", Type: Tags},
			{Name: "published", Type: Bool},
		},
	},
	{
		Kind:       Projects,
		Singular:   "Project",
		TitleField: "title",
		HasImage:   true,
		Filters:    []string{"category", "featured"},
		Fields: []Field{
			{Name: "title", Type: Text, Required: true},
			{Name: "slug", Type: Slug, Required: true, DerivedFrom: "title"},
			{Name: "description", Type: LongText, Required: true, MinLen: 10},
			{Name: "category", Type: Text},
			{Name: "techStack", Type: Tags},
			{Name: "githubUrl", Type: URL},
			{Name: "liveUrl", Type: URL},
			{Name: "featured", Type: Bool},
		},
	},
	{
		Kind:       Challenges,
		Singular:   "Challenge",
		TitleField: "title",
		HasImage:   true,
		Filters:    []string{"status"},
		Fields: []Field{
			{Name: "title", Type: Text, Required: true},
			{Name: "slug", Type: Slug, Required: true, DerivedFrom: "title"},
			{Name: "description", Type: LongText, Required: true, MinLen: 10},
			{Name: "totalDays", Type: Int, Required: true, MinInt: 1, Default: int64(100)},
			{Name: "currentDay", Type: Int, Required: true, MinInt: 0, Default: int64(0)},
			{Name: "status", Type: Enum, Required: true, Options: ChallengeStatuses, Default: "active"},
			{Name: "startDate", Type: Date},
			{Name: "tags", Type: Tags},
		},
	},
	{
		Kind:       Launches,
		Singular:   "Launch",
		TitleField: "title",
		HasImage:   true,
		Filters:    []string{"status"},
		Fields: []Field{
			{Name: "title", Type: Text, Required: true},
			{Name: "slug", Type: Slug, Required: true, DerivedFrom: "title"},
			{Name: "description", Type: LongText, Required: true, MinLen: 10},
			{Name: "launchDate", Type: Date, Required: true},
			{Name: "status", Type: Enum, Required: true, Options: LaunchStatuses, Default: "upcoming"},
			{Name: "url", Type: URL},
		},
	},
	{
		Kind:       Tools,
		Singular:   "Tool",
		TitleField: "name",
		HasImage:   true,
		Filters:    []string{"category"},
		Fields: []Field{
			{Name: "name", Type: Text, Required: true},
			{Name: "category", Type: Text, Required: true},
			{Name: "url", Type: URL, Required: true},
			{Name: "description", Type: LongText},
			{Name: "tags", Type: Tags},
		},
	},
	{
		Kind:         Messages,
		Singular:     "Message",
		TitleField:   "subject",
		Filters:      []string{"read"},
		PublicCreate: true,
		PrivateRead:  true,
		Fields: []Field{
			{Name: "name", Type: Text, Required: true},
			{Name: "email", Type: Email, Required: true},
			{Name: "subject", Type: Text, Required: true},
			{Name: "message", Type: LongText, Required: true, MinLen: 10},
			{Name: "read", Type: Bool},
		},
	},
}

func Lookup(kind model.Kind) (*Schema, bool) {
	for _, s := range schemas {
		if s.Kind == kind {
			return s, true
		}
	}
	return nil, false
}

// All returns every registered schema in display order.
func All() []*Schema {
	return append([]*Schema(nil), schemas...)
}
