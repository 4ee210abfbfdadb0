package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Laisky/errors/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/spf13/cobra"

	"github.com/lumina/internal/db"
	"github.com/lumina/internal/service"
	"github.com/lumina/internal/store"
)

var seedCMD = &cobra.Command{
	Use:   "seed",
	Short: "seed sample data",
	Long:  `create sample categories, blogs and guest posts for local development`,
	Args:  gcmd.NoExtraArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := initialize(cmd)
		if err != nil {
			return err
		}

		ctx := context.Background()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close(ctx) //nolint:errcheck

		_, err = seedSampleData(ctx, st, cmd.OutOrStdout())
		return err
	},
}

func init() {
	rootCMD.AddCommand(seedCMD)
}

// seedReport 统计本次写入的记录数。
type seedReport struct {
	Categories int
	Blogs      int
	GuestPosts int
}

type sampleBlog struct {
	title    string
	content  string
	category string
	tags     []string
	image    string
	status   db.BlogStatus
}

type sampleGuestPost struct {
	name     string
	email    string
	title    string
	content  string
	category string
	backlink string
	actions  []service.Action
}

var sampleCategories = []service.CategoryInput{
	{Name: "Technology", Description: "Engineering notes and tooling"},
	{Name: "Lifestyle", Description: "Habits, reading and everyday life"},
	{Name: "Travel", Description: "Places worth the trip"},
}

var sampleBlogs = []sampleBlog{
	{
		title:    "Building fast web services in Go",
		content:  "<p>Go pairs a small language with a strong standard library. This post walks through routing, middleware and graceful shutdown for a production service.</p>",
		category: "Technology",
		tags:     []string{"go", "web"},
		image:    "https://images.unsplash.com/photo-1523475472560-d2df97ec485c?auto=format&fit=crop&w=1600&q=80",
		status:   db.BlogPublished,
	},
	{
		title:    "Tuning SQLite for small sites",
		content:  "<p>Indexes, WAL mode and a single writer go a long way. Here is what we changed and what we measured.</p>",
		category: "Technology",
		tags:     []string{"sqlite", "database"},
		image:    "https://images.unsplash.com/photo-1518770660439-4636190af475?auto=format&fit=crop&w=1600&q=80",
		status:   db.BlogPublished,
	},
	{
		title:    "A slower morning routine",
		content:  "<p>Fewer notifications, more coffee. Three weeks of trying to start the day without a screen.</p>",
		category: "Lifestyle",
		tags:     []string{"habits"},
		status:   db.BlogPublished,
	},
	{
		title:    "Two days in Lisbon",
		content:  "<p>Trams, tiles and pastel de nata. A short itinerary for a long weekend.</p>",
		category: "Travel",
		tags:     []string{"europe"},
		image:    "https://images.unsplash.com/photo-1487058792275-0ad4aaf24ca7?auto=format&fit=crop&w=1600&q=80",
		status:   db.BlogPublished,
	},
	{
		title:    "Notes on middleware ordering",
		content:  "<p>Draft: recovery first, then logging, then sessions.</p>",
		category: "Technology",
		tags:     []string{"go", "gin"},
		status:   db.BlogDraft,
	},
}

var sampleGuestPosts = []sampleGuestPost{
	{
		name:     "Ada Lovelace",
		email:    "ada@example.com",
		title:    "Why I write every day",
		content:  "Writing a little **every day** keeps ideas moving.\n\nIt does not need to be long.",
		category: "Lifestyle",
		backlink: "https://ada.example.com",
		actions:  []service.Action{service.ActionApprove, service.ActionPublish},
	},
	{
		name:     "Grace Hopper",
		email:    "grace@example.com",
		title:    "Debugging stories",
		content:  "The first bug was an actual moth. The rest were mostly off-by-one errors.",
		category: "Technology",
		actions:  []service.Action{service.ActionApprove},
	},
	{
		name:     "Linus Spam",
		email:    "spam@example.com",
		title:    "Buy cheap watches",
		content:  "Click here.",
		category: "Shopping",
		actions:  []service.Action{service.ActionReject},
	},
	{
		name:     "Margaret Hamilton",
		email:    "margaret@example.com",
		title:    "Software for the moon",
		content:  "Error recovery saved the landing. Priorities matter.",
		category: "Technology",
	},
}

// seedSampleData 写入示例数据。已有文章时跳过，重复执行不会产生重复数据。
func seedSampleData(ctx context.Context, st store.Store, out io.Writer) (seedReport, error) {
	var report seedReport

	existing, err := st.Blogs().Count(ctx, store.BlogFilter{})
	if err != nil {
		return report, errors.Wrap(err, "count blogs")
	}
	if existing > 0 {
		fmt.Fprintln(out, "blogs already exist, skip seeding")
		return report, nil
	}

	fmt.Fprintln(out, "start seeding sample data...")

	categories := service.NewCategoryService(st)
	for _, in := range sampleCategories {
		if _, err := categories.Create(ctx, in); err != nil {
			if errors.Is(err, service.ErrCategoryExists) {
				continue
			}
			return report, errors.Wrapf(err, "create category %q", in.Name)
		}
		report.Categories++
	}

	blogs := service.NewBlogService(st)
	for _, sample := range sampleBlogs {
		if _, err := blogs.Create(ctx, service.BlogInput{
			Title:         sample.title,
			Content:       sample.content,
			Category:      sample.category,
			Tags:          sample.tags,
			FeaturedImage: sample.image,
			Status:        sample.status,
		}); err != nil {
			return report, errors.Wrapf(err, "create blog %q", sample.title)
		}
		report.Blogs++
	}

	guests := service.NewGuestPostService(st)
	for _, sample := range sampleGuestPosts {
		post, err := guests.Submit(ctx, service.GuestSubmission{
			Name:           sample.name,
			Email:          sample.email,
			ArticleTitle:   sample.title,
			ArticleContent: sample.content,
			ContentFormat:  service.ContentFormatMarkdown,
			Category:       sample.category,
			Backlink:       sample.backlink,
			AnchorText:     sample.name,
		})
		if err != nil {
			return report, errors.Wrapf(err, "submit guest post %q", sample.title)
		}
		for _, action := range sample.actions {
			if _, err := guests.Transition(ctx, post.ID, action); err != nil {
				return report, errors.Wrapf(err, "%s guest post %q", action, sample.title)
			}
		}
		report.GuestPosts++
	}

	fmt.Fprintf(out, "seeded %d categories, %d blogs, %d guest posts\n",
		report.Categories, report.Blogs, report.GuestPosts)
	return report, nil
}
