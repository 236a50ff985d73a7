package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/lumine-checkout/internal/domain/coupon"
	"github.com/xenking/lumine-checkout/internal/storage/postgres"
)

const (
	upsertProductSQL = `INSERT INTO products (id, name, price, images, stock, stock_map, variants)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    price = EXCLUDED.price,
    images = EXCLUDED.images,
    stock = EXCLUDED.stock,
    stock_map = EXCLUDED.stock_map,
    variants = EXCLUDED.variants`

	upsertCouponSQL = `INSERT INTO coupons (code, active, expires_at, min_spend, usage_limit, per_user_limit, discount_type, value, max_discount)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (code) DO UPDATE SET
    active = EXCLUDED.active,
    expires_at = EXCLUDED.expires_at,
    min_spend = EXCLUDED.min_spend,
    usage_limit = EXCLUDED.usage_limit,
    per_user_limit = EXCLUDED.per_user_limit,
    discount_type = EXCLUDED.discount_type,
    value = EXCLUDED.value,
    max_discount = EXCLUDED.max_discount`

	claimCouponSQL = `INSERT INTO claimed_coupons (user_id, code)
VALUES ($1, $2)
ON CONFLICT (user_id, code) DO NOTHING`

	upsertTokenSQL = `INSERT INTO user_tokens (token_hash, user_id, name)
VALUES ($1, $2, $3)
ON CONFLICT (token_hash) DO UPDATE SET
    user_id = EXCLUDED.user_id,
    name = EXCLUDED.name`
)

type productJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Images   json.RawMessage `json:"images"`
	Stock    *int64          `json:"stock"`
	StockMap json.RawMessage `json:"stockMap"`
	Variants json.RawMessage `json:"variants"`
}

type couponSeed struct {
	code         string
	active       bool
	expiresAt    *time.Time
	minSpend     *decimal.Decimal
	usageLimit   *int32
	perUserLimit *int32
	discountType coupon.DiscountType
	value        decimal.Decimal
	maxDiscount  *decimal.Decimal
}

func main() {
	var (
		databaseURL  string
		productsFile string
		userID       string
		token        string
		tokenPepper  string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&userID, "user-id", "seed-user", "user ID the seeded token and claims belong to")
	flag.StringVar(&token, "token", "", "bearer token to seed (or LUMINE_SEED_TOKEN env)")
	flag.StringVar(&tokenPepper, "token-pepper", "", "HMAC pepper for token hashing (or LUMINE_TOKEN_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if token == "" {
		token = os.Getenv("LUMINE_SEED_TOKEN")
	}
	if token == "" {
		slog.Error("token is required: set --token or LUMINE_SEED_TOKEN")
		os.Exit(1)
	}
	if tokenPepper == "" {
		tokenPepper = os.Getenv("LUMINE_TOKEN_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, userID, token, tokenPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, userID, token, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedCoupons(ctx, pool, userID); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if err := seedToken(ctx, pool, userID, token, pepper); err != nil {
		return errors.Wrap(err, "seed token")
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		images := p.Images
		if len(images) == 0 {
			images = json.RawMessage(`[]`)
		}

		if _, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.Price, []byte(images), p.Stock, rawOrNil(p.StockMap), rawOrNil(p.Variants),
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool, userID string) error {
	slog.Info("seeding coupons")

	expired := time.Now().AddDate(0, -1, 0)
	coupons := []couponSeed{
		{
			code:         "SAVE10",
			active:       true,
			discountType: coupon.TypePercent,
			value:        decimal.NewFromInt(10),
			maxDiscount:  decPtr(decimal.NewFromInt(200)),
		},
		{
			code:         "WELCOME50",
			active:       true,
			discountType: coupon.TypeFixed,
			value:        decimal.NewFromInt(50),
			perUserLimit: int32Ptr(1),
		},
		{
			code:         "FREESHIP",
			active:       true,
			minSpend:     decPtr(decimal.NewFromInt(500)),
			discountType: coupon.TypeShippingFull,
			value:        decimal.Zero,
		},
		{
			code:         "SHIP30",
			active:       true,
			discountType: coupon.TypeShippingFixed,
			value:        decimal.NewFromInt(30),
			usageLimit:   int32Ptr(100),
		},
		{
			code:         "BYGONE20",
			active:       true,
			expiresAt:    &expired,
			discountType: coupon.TypePercent,
			value:        decimal.NewFromInt(20),
		},
		{
			code:         "VAULTED",
			active:       false,
			discountType: coupon.TypeFixed,
			value:        decimal.NewFromInt(100),
		},
	}

	for _, c := range coupons {
		if _, err := pool.Exec(ctx, upsertCouponSQL,
			c.code, c.active, c.expiresAt, c.minSpend, c.usageLimit, c.perUserLimit,
			string(c.discountType), c.value, c.maxDiscount,
		); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}

		if c.active {
			if _, err := pool.Exec(ctx, claimCouponSQL, userID, c.code); err != nil {
				return errors.Wrapf(err, "claim coupon %s for %s", c.code, userID)
			}
		}

		slog.Info("upserted coupon",
			slog.String("code", c.code),
			slog.String("type", string(c.discountType)),
			slog.Bool("active", c.active),
		)
	}

	return nil
}

func seedToken(ctx context.Context, pool *pgxpool.Pool, userID, token, pepper string) error {
	slog.Info("seeding user token", slog.String("user_id", userID))

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(token))
	tokenHash := hex.EncodeToString(mac.Sum(nil))

	if _, err := pool.Exec(ctx, upsertTokenSQL, tokenHash, userID, "Seed test token"); err != nil {
		return errors.Wrap(err, "upsert user token")
	}

	slog.Info("upserted user token", slog.String("user_id", userID))

	return nil
}

func rawOrNil(raw json.RawMessage) []byte {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return []byte(raw)
}

func decPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func int32Ptr(v int32) *int32 { return &v }
