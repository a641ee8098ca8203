package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"scms/internal/model"
	"scms/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PricingConfig carries the tunable parameters of the discount curve. The
// original rollout observed these only as example percentages, so they are
// deliberately configuration, not constants.
type PricingConfig struct {
	// LargeOrderQuantity is where the volume factor saturates: an order of
	// this quantity (or more) earns the tier's maximum discount.
	LargeOrderQuantity decimal.Decimal
	// NearExpiryDays is the days-to-expiry threshold under which a candidate
	// batch earns a freshness bonus on top of the volume discount.
	NearExpiryDays int
}

// DefaultPricingConfig returns the defaults, overridable via
// PRICING_LARGE_ORDER_QTY and PRICING_NEAR_EXPIRY_DAYS.
func DefaultPricingConfig() PricingConfig {
	cfg := PricingConfig{
		LargeOrderQuantity: decimal.NewFromInt(100),
		NearExpiryDays:     7,
	}
	if v := os.Getenv("PRICING_LARGE_ORDER_QTY"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && d.IsPositive() {
			cfg.LargeOrderQuantity = d
		}
	}
	if v := os.Getenv("PRICING_NEAR_EXPIRY_DAYS"); v != "" {
		var days int
		if _, err := fmt.Sscanf(v, "%d", &days); err == nil && days >= 0 {
			cfg.NearExpiryDays = days
		}
	}
	return cfg
}

// PriceQuote is the result of a price computation for one product/quantity.
type PriceQuote struct {
	ProductID          string          `json:"product_id"`
	RetailerID         string          `json:"retailer_id,omitempty"`
	TierName           string          `json:"tier_name,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	MRP                decimal.Decimal `json:"mrp"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
}

// PricingService computes the unit price a retailer pays for a quantity of a
// product, bounded by the retailer's tier band, with volume and near-expiry
// adjustments.
type PricingService interface {
	ComputePrice(ctx context.Context, productID, retailerID uuid.UUID, quantity decimal.Decimal) (PriceQuote, error)
	// ResolveTier resolves a retailer's tier once so order processing can
	// reuse it across lines. Returns (nil, nil) for tierless retailers.
	ResolveTier(ctx context.Context, retailer *model.Retailer) (*model.PricingTier, error)
	// QuoteForTier prices a quantity against an already-resolved tier,
	// optionally considering a candidate batch's proximity to expiry.
	QuoteForTier(product *model.Product, tier *model.PricingTier, quantity decimal.Decimal, candidate *model.Batch, today time.Time) (PriceQuote, error)
}

type pricingService struct {
	cfg          PricingConfig
	productRepo  repository.ProductRepository
	retailerRepo repository.RetailerRepository
	tierRepo     repository.PricingTierRepository
}

func NewPricingService(
	cfg PricingConfig,
	productRepo repository.ProductRepository,
	retailerRepo repository.RetailerRepository,
	tierRepo repository.PricingTierRepository,
) PricingService {
	return &pricingService{
		cfg:          cfg,
		productRepo:  productRepo,
		retailerRepo: retailerRepo,
		tierRepo:     tierRepo,
	}
}

func (s *pricingService) ComputePrice(ctx context.Context, productID, retailerID uuid.UUID, quantity decimal.Decimal) (PriceQuote, error) {
	if !quantity.IsPositive() {
		return PriceQuote{}, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PriceQuote{}, ErrInvalidProduct
		}
		return PriceQuote{}, fmt.Errorf("failed to load product: %w", err)
	}

	retailer, err := s.retailerRepo.FindByID(ctx, retailerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PriceQuote{}, ErrInvalidRetailer
		}
		return PriceQuote{}, fmt.Errorf("failed to load retailer: %w", err)
	}

	tier, err := s.ResolveTier(ctx, retailer)
	if err != nil {
		return PriceQuote{}, err
	}

	quote, err := s.QuoteForTier(product, tier, quantity, nil, time.Now())
	if err != nil {
		return PriceQuote{}, err
	}
	quote.RetailerID = retailer.ID.String()
	return quote, nil
}

func (s *pricingService) ResolveTier(ctx context.Context, retailer *model.Retailer) (*model.PricingTier, error) {
	if retailer.PricingTierID == nil {
		return nil, nil // No tier assignment: retailer buys at MRP
	}
	tier, err := s.tierRepo.FindActiveByID(ctx, *retailer.PricingTierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, fmt.Errorf("failed to load pricing tier: %w", err)
	}
	return tier, nil
}

var one = decimal.NewFromInt(1)

func (s *pricingService) QuoteForTier(product *model.Product, tier *model.PricingTier, quantity decimal.Decimal, candidate *model.Batch, today time.Time) (PriceQuote, error) {
	if !quantity.IsPositive() {
		return PriceQuote{}, ErrInvalidQuantity
	}

	discount := decimal.Zero
	tierName := ""
	if tier != nil {
		tierName = tier.Name
		span := tier.MaxDiscountPercentage.Sub(tier.MinDiscountPercentage)
		discount = tier.MinDiscountPercentage.Add(span.Mul(s.volumeFactor(quantity)))

		if candidate != nil {
			discount = discount.Add(s.nearExpiryBonus(candidate, today))
		}

		// The bonus never pierces the tier ceiling.
		if discount.GreaterThan(tier.MaxDiscountPercentage) {
			discount = tier.MaxDiscountPercentage
		}
		if discount.LessThan(tier.MinDiscountPercentage) {
			discount = tier.MinDiscountPercentage
		}
	}

	unitPrice := product.MRP.Mul(one.Sub(discount.Div(oneHundredPct))).Round(2)

	return PriceQuote{
		ProductID:          product.ID.String(),
		TierName:           tierName,
		Quantity:           quantity,
		MRP:                product.MRP,
		DiscountPercentage: discount.Round(2),
		UnitPrice:          unitPrice,
	}, nil
}

var oneHundredPct = decimal.NewFromInt(100)

// volumeFactor is a saturating linear ramp in [0, 1]: quantity over the
// large-order threshold maps to 1, smaller orders scale proportionally.
// Monotonically non-decreasing, so bigger orders never earn less discount.
func (s *pricingService) volumeFactor(quantity decimal.Decimal) decimal.Decimal {
	if !s.cfg.LargeOrderQuantity.IsPositive() {
		return one
	}
	factor := quantity.Div(s.cfg.LargeOrderQuantity)
	if factor.GreaterThan(one) {
		return one
	}
	return factor
}

// nearExpiryBonus returns the extra discount percentage for a batch close to
// expiry: +30 within a day, +20 within three days, +10 inside the configured
// threshold, 0 otherwise. The caller clamps the sum to the tier band.
func (s *pricingService) nearExpiryBonus(candidate *model.Batch, today time.Time) decimal.Decimal {
	days := candidate.DaysUntilExpiry(today)
	if days > s.cfg.NearExpiryDays {
		return decimal.Zero
	}
	switch {
	case days <= 1:
		return decimal.NewFromInt(30)
	case days <= 3:
		return decimal.NewFromInt(20)
	default:
		return decimal.NewFromInt(10)
	}
}
