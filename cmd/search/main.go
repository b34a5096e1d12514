package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/xaenox/memo-bridge/internal/archive"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

func main() {
	file := pflag.String("file", "conversations.json", "ChatGPT conversations.json export")
	keyword := pflag.String("keyword", "", "keyword to search for (required)")
	speaker := pflag.String("speaker", archive.SpeakerAll, "All, User or Assistant")
	from := pflag.String("from", "", "start date, YYYY-MM-DD")
	to := pflag.String("to", "", "end date, YYYY-MM-DD (inclusive)")
	export := pflag.Int("export", 0, "write the Nth result (1-based) to conversation_<id>.md")
	pflag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if *keyword == "" {
		fmt.Fprintln(os.Stderr, "Please enter a keyword with --keyword.")
		os.Exit(2)
	}

	filter := archive.Filter{Keyword: *keyword, Speaker: *speaker}
	var err error
	if filter.Start, err = parseDate(*from); err != nil {
		logger.Fatal("Dates must be in YYYY-MM-DD format", zap.String("from", *from))
	}
	if filter.End, err = parseDate(*to); err != nil {
		logger.Fatal("Dates must be in YYYY-MM-DD format", zap.String("to", *to))
	}
	if !filter.End.IsZero() {
		filter.End = filter.End.Add(24*time.Hour - time.Nanosecond)
	}

	convs, err := archive.Load(*file)
	if err != nil {
		logger.Fatal("Failed to load export", zap.Error(err), zap.String("file", *file))
	}

	matches := archive.Search(convs, filter)
	if len(matches) == 0 {
		fmt.Println("No matches.")
		return
	}

	for i, m := range matches {
		fmt.Printf("%d. %s\n", i+1, m.Preview())
		for _, ex := range m.Excerpts {
			fmt.Printf("   [%s] %s: %s\n", ex.Timestamp, ex.Author, archive.Highlight(ex.Text, *keyword))
		}
	}

	if *export > 0 {
		if *export > len(matches) {
			logger.Fatal("No such result", zap.Int("export", *export), zap.Int("results", len(matches)))
		}
		m := matches[*export-1]
		name := archive.ExportFileName(m.ConversationID)
		f, err := os.Create(name)
		if err != nil {
			logger.Fatal("Failed to create export file", zap.Error(err))
		}
		defer f.Close()
		if err := archive.ExportMarkdown(f, m.ConversationID, m.Excerpts, *keyword); err != nil {
			logger.Fatal("Failed to export conversation", zap.Error(err))
		}
		fmt.Printf("Exported to %s\n", name)
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, s, time.Local)
}
