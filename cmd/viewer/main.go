// Read-only conversation dump. Opens the message store without taking
// the lock so it can run next to a live server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"artisan-chat/repositories"

	"github.com/mama165/sdk-go/logs"
)

func main() {
	dbPath := flag.String("db", "", "Path to the badger message store")
	userA := flag.String("a", "", "First participant id")
	userB := flag.String("b", "", "Second participant id")
	limit := flag.Int("limit", 50, "Maximum messages to display")
	flag.Parse()

	if *dbPath == "" || *userA == "" || *userB == "" {
		flag.Usage()
		os.Exit(2)
	}

	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repo := repositories.NewMessageRepository(db, logs.GetLoggerFromString("warn"), lo.ToPtr(*limit))
	messages, _, err := repo.GetConversation(*userA, *userB, nil)
	if err != nil {
		log.Fatalf("Failed to load conversation: %v", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"At", "Sender", "Content", "Read", "Job"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, msg := range messages {
		jobID := ""
		if msg.JobID != nil {
			jobID = *msg.JobID
		}
		table.Append([]string{
			msg.CreatedAt.Format(time.DateTime),
			msg.SenderID,
			msg.Content,
			fmt.Sprintf("%t", msg.Read),
			jobID,
		})
	}
	table.Render()
}
