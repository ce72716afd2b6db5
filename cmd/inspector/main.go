package main

import (
	"batepapo/repositories"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

// Read-only dump of the chat store: participants and messages rendered as
// a table. Safe to run while the server holds the badger lock.
func main() {
	dbPath := flag.String("db", "data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg: or participant:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Time", "From", "To", "Text"})
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

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// The id index maps ids to entry keys, nothing to render.
			if strings.HasPrefix(key, "msgid:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				switch {
				case strings.HasPrefix(key, "participant:"):
					participant, err := repositories.DecodeParticipant(v)
					if err != nil {
						fmt.Printf("Error decoding key %s: %v\n", key, err)
						return nil
					}
					table.Append([]string{
						key,
						"participant",
						participant.LastSeen.Format("15:04:05"),
						participant.Name,
						"",
						"",
					})
				default:
					message, err := repositories.DecodeMessage(v)
					if err != nil {
						fmt.Printf("Error decoding key %s: %v\n", key, err)
						return nil
					}
					table.Append([]string{
						key,
						string(message.Kind),
						message.At.Format("15:04:05"),
						message.From,
						message.To,
						message.Text,
					})
				}
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
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
