package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// BunStoreConfig configures the optional Postgres persistence for imported
// menus. Leaving DSN empty disables it.
type BunStoreConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

type menuRow struct {
	bun.BaseModel `bun:"table:menu_items"`

	ID          int64    `bun:"id,pk,autoincrement"`
	Store       string   `bun:"store,notnull"`
	Position    int      `bun:"position,notnull"`
	Name        string   `bun:"name,notnull"`
	Description string   `bun:"description"`
	Price       int      `bun:"price,notnull"`
	Image       string   `bun:"image"`
	Tags        []string `bun:"tags,array"`
	Allergens   []string `bun:"allergens,array"`
	Featured    bool     `bun:"featured,notnull,default:false"`
}

// BunStore persists catalog imports in Postgres via bun so an imported menu
// survives restarts. The in-memory Catalog stays the read path; this store
// only mirrors full-replace writes and rehydrates at startup.
type BunStore struct {
	db      *bun.DB
	timeout time.Duration
}

func NewBunStore(cfg BunStoreConfig) (*BunStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("catalog dsn is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &BunStore{db: db, timeout: timeout}, nil
}

func (s *BunStore) Close() error {
	return s.db.Close()
}

// Init creates the backing table when absent.
func (s *BunStore) Init(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.db.NewCreateTable().Model((*menuRow)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("create menu table: %w", err)
	}
	return nil
}

// Replace mirrors a full-replace import for one store.
func (s *BunStore) Replace(ctx context.Context, store string, items []MenuItem, featured *MenuItem) error {
	key := strings.TrimSpace(store)
	if key == "" {
		return ErrStoreRequired
	}
	rows := toRows(key, items, featured)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*menuRow)(nil)).Where("store = ?", key).Exec(ctx); err != nil {
			return fmt.Errorf("clear store rows: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert store rows: %w", err)
		}
		return nil
	})
}

// LoadAll rehydrates every persisted store into the given catalog.
func (s *BunStore) LoadAll(ctx context.Context, into *Catalog) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rows []menuRow
	if err := s.db.NewSelect().Model(&rows).Order("store", "position").Scan(ctx); err != nil {
		return fmt.Errorf("load menu rows: %w", err)
	}

	byStore := make(map[string][]menuRow)
	order := make([]string, 0)
	for _, row := range rows {
		if _, ok := byStore[row.Store]; !ok {
			order = append(order, row.Store)
		}
		byStore[row.Store] = append(byStore[row.Store], row)
	}

	for _, store := range order {
		items := make([]MenuItem, 0, len(byStore[store]))
		var featured *MenuItem
		for _, row := range byStore[store] {
			item := fromRow(row)
			items = append(items, item)
			if row.Featured && featured == nil {
				f := item
				featured = &f
			}
		}
		if err := into.Upsert(store, items, featured); err != nil {
			return err
		}
	}
	return nil
}

func toRows(store string, items []MenuItem, featured *MenuItem) []menuRow {
	featuredName := ""
	if featured != nil {
		featuredName = Normalize(featured.Name)
	}
	rows := make([]menuRow, 0, len(items))
	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			continue
		}
		rows = append(rows, menuRow{
			Store:       store,
			Position:    i,
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price,
			Image:       item.Image,
			Tags:        item.Tags,
			Allergens:   item.Allergens,
			Featured:    featuredName != "" && Normalize(item.Name) == featuredName,
		})
	}
	return rows
}

func fromRow(row menuRow) MenuItem {
	return MenuItem{
		Name:        row.Name,
		Description: row.Description,
		Price:       row.Price,
		Image:       row.Image,
		Tags:        row.Tags,
		Allergens:   row.Allergens,
	}
}
