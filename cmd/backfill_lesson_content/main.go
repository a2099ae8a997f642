package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/learny-backend/internal/app"
	types "github.com/yungbote/learny-backend/internal/domain/learning"
	"github.com/yungbote/learny-backend/internal/pkg/dbctx"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

// needsContent reports whether any lesson still carries only the
// description block it was materialized with.
func needsContent(c *types.Course) int {
	missing := 0
	for _, l := range c.Lessons {
		if l != nil && len(l.ContentBlocks) <= 1 && len(l.Quiz) == 0 {
			missing++
		}
	}
	return missing
}

func main() {
	var courses idList
	var dryRun bool
	var limit int
	flag.Var(&courses, "course", "course id to backfill (repeatable)")
	flag.BoolVar(&dryRun, "dry-run", false, "print planned generations without calling the generator")
	flag.IntVar(&limit, "limit", 0, "limit number of courses processed")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	var rows []*types.Course
	if len(courses) > 0 {
		ids := make([]uuid.UUID, 0, len(courses))
		for _, s := range courses {
			id, err := uuid.Parse(strings.TrimSpace(s))
			if err == nil && id != uuid.Nil {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			fmt.Println("no valid course id values provided")
			return
		}
		rows, err = application.Repos.Course.GetByIDs(ctx, nil, ids)
	} else {
		rows, err = application.Repos.Course.ListAll(ctx, nil)
	}
	if err != nil {
		fmt.Printf("load courses: %v\n", err)
		os.Exit(1)
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	generated, failed := 0, 0
	for _, course := range rows {
		if course == nil || course.ID == uuid.Nil {
			continue
		}
		missing := needsContent(course)
		if missing == 0 {
			continue
		}
		if dryRun {
			fmt.Printf("[dry-run] generate lesson content course_id=%s (missing %d lessons)\n", course.ID.String(), missing)
			continue
		}
		report, err := application.Services.LessonContent.Generate(dbc, course.ID)
		if err != nil {
			fmt.Printf("generate failed for course %s: %v\n", course.ID.String(), err)
			continue
		}
		generated += report.Generated
		failed += report.Failed
		fmt.Printf("generated content for course_id=%s generated=%d failed=%d\n", course.ID.String(), report.Generated, report.Failed)
	}

	fmt.Printf("done; generated=%d failed=%d\n", generated, failed)
}
