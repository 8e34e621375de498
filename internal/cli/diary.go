package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/pillbook/internal/constants"
	"github.com/julianstephens/pillbook/internal/models"
	"github.com/julianstephens/pillbook/internal/storage"
)

type DiaryAddCmd struct {
	Content string `arg:"" optional:"" help:"Entry text; prompted for when omitted."`
}

func (c *DiaryAddCmd) Run(ctx *Context) error {
	content := c.Content
	if strings.TrimSpace(content) == "" {
		var err error
		if content, err = ctx.prompt("How are you feeling?"); err != nil {
			return err
		}
	}
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}

	d := models.NewHealthDiaryFor(ctx.clock(), ctx.Owner, content)
	created, err := repos.Diaries.Create(context.Background(), d).Wait()
	if err != nil {
		return err
	}
	ctx.printf("Saved diary entry %d (%d characters)\n", created.ID, created.ContentLength())
	return nil
}

type DiaryListCmd struct {
	Limit  int    `help:"Maximum number of entries; 0 for all." default:"20"`
	Offset int    `help:"Entries to skip."`
	From   string `help:"Only entries created on or after this date (YYYY-MM-DD)."`
	To     string `help:"Only entries created on or before this date (YYYY-MM-DD)."`
}

func (c *DiaryListCmd) Run(ctx *Context) error {
	from, err := parseDay(c.From, false)
	if err != nil {
		return err
	}
	to, err := parseDay(c.To, true)
	if err != nil {
		return err
	}
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}

	var diaries []models.HealthDiary
	if from > 0 && to > 0 && c.Limit == 0 && c.Offset == 0 {
		diaries, err = repos.Diaries.Range(context.Background(), ctx.Owner, from, to).Wait()
	} else {
		diaries, err = repos.Diaries.ListForOwner(context.Background(), storage.DiaryFilter{
			UserID: ctx.Owner,
			From:   from,
			To:     to,
			Limit:  c.Limit,
			Offset: c.Offset,
		}).Wait()
	}
	if err != nil {
		return err
	}
	printDiaries(ctx, diaries)
	return nil
}

// parseDay reads a local calendar date as epoch ms at the start of the day,
// or at its last millisecond when end is set. Empty input means unbounded.
func parseDay(s string, end bool) (int64, error) {
	if s == "" {
		return 0, nil
	}
	day, err := time.ParseInLocation(constants.DateFormat, s, time.Local)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	if end {
		return day.AddDate(0, 0, 1).UnixMilli() - 1, nil
	}
	return day.UnixMilli(), nil
}

func printDiaries(ctx *Context, diaries []models.HealthDiary) {
	if len(diaries) == 0 {
		ctx.println("No diary entries found.")
		return
	}
	for _, d := range diaries {
		stamp := d.FormattedCreatedDate()
		if d.IsModified() {
			stamp += mutedStyle.Render(" (edited)")
		}
		ctx.printf("%-4d %s\n", d.ID, stamp)
		ctx.printf("     %s\n", strings.ReplaceAll(d.DefaultPreview(), "\n", " "))
	}
}

type DiaryShowCmd struct {
	ID int64 `arg:"" help:"Diary entry ID."`
}

func (c *DiaryShowCmd) Run(ctx *Context) error {
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}
	d, err := repos.Diaries.Get(context.Background(), ctx.Owner, c.ID).Wait()
	if err != nil {
		return err
	}

	ctx.println(headerStyle.Render(fmt.Sprintf("Entry %d, %s", d.ID, d.FormattedCreatedDate())))
	if d.IsModified() {
		ctx.println(mutedStyle.Render("edited " + d.FormattedUpdatedDate()))
	}
	ctx.println()
	ctx.println(d.Content())
	return nil
}

type DiaryEditCmd struct {
	ID      int64  `arg:"" help:"Diary entry ID."`
	Content string `arg:"" optional:"" help:"New text; prompted for when omitted."`
}

func (c *DiaryEditCmd) Run(ctx *Context) error {
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}
	bg := context.Background()
	d, err := repos.Diaries.Get(bg, ctx.Owner, c.ID).Wait()
	if err != nil {
		return err
	}

	content := c.Content
	if strings.TrimSpace(content) == "" {
		if content, err = ctx.prompt(fmt.Sprintf("Edit entry %d", d.ID)); err != nil {
			return err
		}
	}
	if err := repos.Diaries.ValidateContent(content); err != nil {
		return err
	}
	d.SetContent(content)

	updated, err := repos.Diaries.Update(bg, d).Wait()
	if err != nil {
		return err
	}
	ctx.printf("Updated diary entry %d\n", updated.ID)
	return nil
}

type DiaryDeleteCmd struct {
	ID int64 `arg:"" help:"Diary entry ID."`
}

func (c *DiaryDeleteCmd) Run(ctx *Context) error {
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}
	bg := context.Background()
	d, err := repos.Diaries.Get(bg, ctx.Owner, c.ID).Wait()
	if err != nil {
		return err
	}

	ok, err := ctx.confirm(fmt.Sprintf("Delete the entry from %s?", d.FormattedCreatedDate()))
	if err != nil {
		return err
	}
	if !ok {
		ctx.println("Delete cancelled.")
		return nil
	}
	if _, err := repos.Diaries.Delete(bg, ctx.Owner, c.ID).Wait(); err != nil {
		return err
	}
	ctx.printf("Deleted diary entry %d\n", d.ID)
	return nil
}

type DiarySearchCmd struct {
	Keyword string `arg:"" help:"Text to look for, case-insensitive."`
}

func (c *DiarySearchCmd) Run(ctx *Context) error {
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}
	diaries, err := repos.Diaries.Search(context.Background(), ctx.Owner, c.Keyword).Wait()
	if err != nil {
		return err
	}
	if len(diaries) > 0 {
		ctx.printf("%d %s matching %q\n", len(diaries), plural(len(diaries), "entry", "entries"), c.Keyword)
	}
	printDiaries(ctx, diaries)
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
