// Command archive_inspect dumps the message archive as a table, for
// poking at a live database without starting the agent.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"go.mongodb.org/mongo-driver/bson"

	"tonebot/archive"
)

func main() {
	dbPath := flag.String("db", "data/archive", "Path to badger DB")
	prefix := flag.String("prefix", archive.KeyPrefix, "Prefix to scan")
	limit := flag.Int("limit", 100, "Maximum rows to display")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	color.Cyan.Printf("Archive dump for %s (prefix %q)\n\n", *dbPath, *prefix)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Chat", "Sender", "At", "Text"})
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

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			if rows == *limit {
				break
			}
			item := it.Item()

			err := item.Value(func(value []byte) error {
				var record archive.Record
				if err := bson.Unmarshal(value, &record); err != nil {
					// Keep scanning instead of aborting the whole dump.
					fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}

				text := record.Text
				if len(text) > 60 {
					text = text[:57] + "..."
				}

				table.Append([]string{
					string(item.Key()),
					record.Chat,
					record.Sender,
					time.Unix(0, record.AtNano).Format("2006-01-02 15:04:05"),
					text,
				})
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	color.Green.Printf("\n%d entries\n", rows)
}
