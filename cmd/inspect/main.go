// Command inspect dumps flyte store contents as tables. Read-only: safe to
// point at a live store directory.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type config struct {
	DBPath string `envconfig:"BADGER_FILEPATH" required:"true"`
	Limit  int    `envconfig:"INSPECT_LIMIT" default:"200"`
}

// Local mirrors of the repository records; field names must match the
// stored CBOR tags.
type roomRow struct {
	ID          string `cbor:"id"`
	Name        string `cbor:"name"`
	Type        string `cbor:"type"`
	ExpiryTime  *int64 `cbor:"expiry_time"`
	LastMessage *int64 `cbor:"last_message"`
}

type journeyRow struct {
	ID           string `cbor:"id"`
	UserID       string `cbor:"user_id"`
	Source       string `cbor:"source"`
	Destination  string `cbor:"destination"`
	FlightNumber string `cbor:"flight_number"`
	SourceSlot   string `cbor:"source_slot"`
	DestSlot     string `cbor:"destination_slot"`
}

type messageRow struct {
	ID        string `cbor:"id"`
	RoomID    string `cbor:"room_id"`
	UserID    string `cbor:"user_id"`
	Text      string `cbor:"message_text"`
	MediaType string `cbor:"media_type"`
	CreatedAt int64  `cbor:"created_at"`
}

func main() {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal("config: ", err)
	}

	db, err := badger.Open(badger.DefaultOptions(cfg.DBPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if err := dumpRooms(db, cfg.Limit); err != nil {
		log.Fatal(err)
	}
	if err := dumpJourneys(db, cfg.Limit); err != nil {
		log.Fatal(err)
	}
	if err := dumpMessages(db, cfg.Limit); err != nil {
		log.Fatal(err)
	}
}

func dumpRooms(db *badger.DB, limit int) error {
	color.Bold.Println("\nROOMS")
	table := newTable("ID", "Name", "Type", "Expiry", "Last Message")

	err := scan(db, "room:", limit, func(val []byte) error {
		var row roomRow
		if err := cbor.Unmarshal(val, &row); err != nil {
			return err
		}
		table.Append([]string{
			short(row.ID), row.Name, colorType(row.Type),
			formatNano(row.ExpiryTime), formatNano(row.LastMessage),
		})
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	return nil
}

func dumpJourneys(db *badger.DB, limit int) error {
	color.Bold.Println("\nJOURNEYS")
	table := newTable("ID", "User", "Flight", "Leg", "Source Slot", "Dest Slot")

	err := scan(db, "journey:", limit, func(val []byte) error {
		var row journeyRow
		if err := cbor.Unmarshal(val, &row); err != nil {
			return err
		}
		table.Append([]string{
			short(row.ID), short(row.UserID), row.FlightNumber,
			row.Source + "->" + row.Destination, row.SourceSlot, row.DestSlot,
		})
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	return nil
}

func dumpMessages(db *badger.DB, limit int) error {
	color.Bold.Println("\nMESSAGES")
	table := newTable("ID", "Room", "Sender", "At", "Media", "Text")

	err := scan(db, "msg:", limit, func(val []byte) error {
		var row messageRow
		if err := cbor.Unmarshal(val, &row); err != nil {
			return err
		}
		text := row.Text
		if len(text) > 40 {
			text = text[:40] + "..."
		}
		table.Append([]string{
			short(row.ID), short(row.RoomID), short(row.UserID),
			time.Unix(0, row.CreatedAt).UTC().Format("02 Jan 15:04:05"),
			row.MediaType, text,
		})
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	return nil
}

// scan walks a key prefix and feeds each value to fn, stopping at limit.
func scan(db *badger.DB, prefix string, limit int, fn func(val []byte) error) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		count := 0
		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			if count == limit {
				fmt.Printf("(truncated at %d rows)\n", limit)
				return nil
			}
			if err := it.Item().Value(fn); err != nil {
				return err
			}
			count++
		}
		return nil
	})
}

func newTable(headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func colorType(roomType string) string {
	switch roomType {
	case "FLIGHT":
		return color.Cyan.Sprint(roomType)
	case "SOURCE", "DESTINATION":
		return color.Green.Sprint(roomType)
	default:
		return color.Yellow.Sprint(roomType)
	}
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatNano(nanos *int64) string {
	if nanos == nil {
		return "-"
	}
	return time.Unix(0, *nanos).UTC().Format("02 Jan 15:04")
}
