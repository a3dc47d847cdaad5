package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/viant/hotelsearch/booking"
	"github.com/viant/hotelsearch/catalog"
	"github.com/viant/hotelsearch/engine"
	"github.com/viant/hotelsearch/geo"
	"github.com/viant/hotelsearch/index"
	"github.com/viant/hotelsearch/knnvt"
)

func newHotelsCmd(a *app) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "hotels",
		Short: "Manage and query the hotel catalogue",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default from config: hotels.sqlite)")

	open := func(cmd *cobra.Command) (*sql.DB, *catalog.SQLiteStore, error) {
		path := a.cfg.Catalog.DB
		if cmd.Flags().Changed("db") {
			path = dbPath
		}
		return openCatalog(cmd.Context(), path, a.cfg.Catalog)
	}

	cmd.AddCommand(
		newHotelsGenerateCmd(open),
		newHotelsFindCmd(a, open),
		newHotelsBookCmd(open),
		newHotelsBookingsCmd(open),
		newHotelsExportCmd(open),
	)
	return cmd
}

type openFunc func(cmd *cobra.Command) (*sql.DB, *catalog.SQLiteStore, error)

// openCatalog opens path with the geo functions registered, then ensures the
// catalogue schema. File databases also get the hotel_knn module and WAL.
func openCatalog(ctx context.Context, path string, cfg CatalogConfig) (*sql.DB, *catalog.SQLiteStore, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := engine.OpenGeo(path)
	if err != nil {
		return nil, nil, err
	}
	if path != ":memory:" {
		if err := knnvt.Register(db, finderOptions(cfg)...); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	store, err := catalog.NewSQLiteStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, store, nil
}

func finderOptions(cfg CatalogConfig) []catalog.FinderOption {
	kind, ok := index.ParseKind(cfg.Index)
	if !ok {
		kind = index.Kind(cfg.Index)
	}
	return []catalog.FinderOption{
		catalog.WithIndexKind(kind),
		catalog.WithSnapshots(cfg.snapshotsEnabled()),
	}
}

func newHotelsGenerateCmd(open openFunc) *cobra.Command {
	var (
		count    int
		seed     int64
		textOut  string
		textFrom string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Fill the catalogue with synthetic hotels or import a hotels.txt file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var hotels []catalog.Hotel
			if textFrom != "" {
				f, err := os.Open(textFrom)
				if err != nil {
					return err
				}
				defer f.Close()
				if hotels, err = catalog.ReadText(f); err != nil {
					return err
				}
			} else {
				if !cmd.Flags().Changed("seed") {
					seed = time.Now().UnixNano()
				}
				hotels = catalog.Generate(rand.New(rand.NewSource(seed)), count)
			}

			db, store, err := open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			ids, err := store.AddHotels(cmd.Context(), hotels)
			if err != nil {
				return err
			}
			logrus.Infof("stored %d hotels", len(ids))

			if textOut != "" {
				f, err := os.Create(textOut)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := catalog.WriteText(f, hotels); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Generated %d hotels\n", len(ids))
			return err
		},
	}
	cmd.Flags().IntVar(&count, "count", 200, "Number of hotels to generate")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for hotel generation (default: time based)")
	cmd.Flags().StringVar(&textOut, "text", "", "Also write the hotels to this hotels.txt file")
	cmd.Flags().StringVar(&textFrom, "from-text", "", "Import hotels from a hotels.txt file instead of generating")
	return cmd
}

func newHotelsFindCmd(a *app, open openFunc) *cobra.Command {
	var (
		location string
		x, y     float64
		k        int
		kind     string
		viaSQL   bool
	)
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find the hotels nearest to a place name or point",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.Catalog
			if cmd.Flags().Changed("index") {
				cfg.Index = kind
			}
			if !cmd.Flags().Changed("k") {
				k = cfg.K
			}
			db, store, err := open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			finder, err := catalog.NewFinder(store, finderOptions(cfg)...)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			var result *catalog.FindResult
			switch {
			case cmd.Flags().Changed("x") || cmd.Flags().Changed("y"):
				p := geo.Pt(x, y)
				hotels, err := findNear(ctx, db, finder, p, k, viaSQL)
				if err != nil {
					return err
				}
				result = &catalog.FindResult{Location: p.String(), Coords: p, Hotels: hotels}
			case viaSQL:
				if location == "" {
					location = catalog.DefaultLocation
				}
				p := catalog.HashLocation(location)
				hotels, err := findNear(ctx, db, finder, p, k, true)
				if err != nil {
					return err
				}
				result = &catalog.FindResult{Location: location, Coords: p, Hotels: hotels}
			default:
				if result, err = finder.Find(ctx, location, k); err != nil {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&location, "location", "", "Place name, hashed onto the map (default Beijing)")
	cmd.Flags().Float64Var(&x, "x", 0, "Search point x (overrides --location)")
	cmd.Flags().Float64Var(&y, "y", 0, "Search point y (overrides --location)")
	cmd.Flags().IntVar(&k, "k", 10, "Number of hotels to return (<= 0 for all)")
	cmd.Flags().StringVar(&kind, "index", "auto", "Index kind: brute, cover or auto")
	cmd.Flags().BoolVar(&viaSQL, "via-sql", false, "Query through the hotel_knn virtual table")
	return cmd
}

// findNear answers from the Finder or, with viaSQL, from the hotel_knn
// virtual table.
func findNear(ctx context.Context, db *sql.DB, finder *catalog.Finder, p geo.Point, k int, viaSQL bool) ([]catalog.Match, error) {
	if !viaSQL {
		return finder.FindNear(ctx, p, k)
	}
	if db.Stats().MaxOpenConnections == 1 {
		return nil, fmt.Errorf("--via-sql needs a file database: %w", knnvt.ErrSingleConnection)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, `CREATE VIRTUAL TABLE IF NOT EXISTS temp.hotels_near USING `+knnvt.ModuleName+`(hotel_id)`); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = -1
	}
	rows, err := conn.QueryContext(ctx, `SELECT h.id, h.brand, h.name, h.city, h.x, h.y, h.price, h.rating, h.capacity, n.distance
FROM temp.hotels_near n JOIN hotels h ON h.id = n.hotel_id
WHERE n.hotel_id MATCH ?
LIMIT ?`, p.String(), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []catalog.Match
	for rows.Next() {
		var m catalog.Match
		if err := rows.Scan(&m.ID, &m.Brand, &m.Name, &m.City, &m.Location.X, &m.Location.Y,
			&m.Price, &m.Rating, &m.Capacity, &m.Distance); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func newHotelsBookCmd(open openFunc) *cobra.Command {
	var req booking.Request
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book one room in a hotel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, _, err := open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			svc, err := booking.NewService(cmd.Context(), db)
			if err != nil {
				return err
			}
			b, err := svc.Book(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), b)
		},
	}
	cmd.Flags().Int64Var(&req.HotelID, "hotel-id", 0, "Hotel id to book")
	cmd.Flags().StringVar(&req.Guest, "guest", "", "Guest name")
	return cmd
}

func newHotelsBookingsCmd(open openFunc) *cobra.Command {
	var hotelID int64
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List the bookings of a hotel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, _, err := open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			svc, err := booking.NewService(cmd.Context(), db)
			if err != nil {
				return err
			}
			list, err := svc.Bookings(cmd.Context(), hotelID)
			if err != nil {
				return err
			}
			if list == nil {
				list = []booking.Booking{}
			}
			return writeJSON(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().Int64Var(&hotelID, "hotel-id", 0, "Hotel id")
	return cmd
}

func newHotelsExportCmd(open openFunc) *cobra.Command {
	var textOut string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalogue in hotels.txt format",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, store, err := open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			hotels, err := store.Hotels(cmd.Context())
			if err != nil {
				return err
			}
			if textOut == "" || textOut == "-" {
				return catalog.WriteText(cmd.OutOrStdout(), hotels)
			}
			f, err := os.Create(textOut)
			if err != nil {
				return err
			}
			if err := catalog.WriteText(f, hotels); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVar(&textOut, "text", "-", "Output file (- for stdout)")
	return cmd
}
