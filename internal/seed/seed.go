package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/tably/internal/catalog/domain"
	discountdomain "github.com/smallbiznis/tably/internal/discount/domain"
	orderdomain "github.com/smallbiznis/tably/internal/order/domain"
	tabledomain "github.com/smallbiznis/tably/internal/table/domain"
	"gorm.io/gorm"
)

// EnsureBaseData seeds the reference rows the engine expects: void reason
// codes and the house discount definitions. Safe to run on every startup.
func EnsureBaseData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureVoidReasons(ctx, tx); err != nil {
			return err
		}
		return ensureDiscountDefinitions(ctx, tx, node)
	})
}

// EnsureDemoData seeds a small floor plan and menu for local development.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTables(ctx, tx, node); err != nil {
			return err
		}
		return ensureProducts(ctx, tx, node)
	})
}

func ensureVoidReasons(ctx context.Context, tx *gorm.DB) error {
	now := time.Now().UTC()
	reasons := []orderdomain.VoidReason{
		{Code: "customer_changed_mind", Label: "Customer changed mind", RequiresManager: false, CreatedAt: now},
		{Code: "wrong_item_entered", Label: "Wrong item entered", RequiresManager: false, CreatedAt: now},
		{Code: "kitchen_out_of_stock", Label: "Kitchen out of stock", RequiresManager: false, CreatedAt: now},
		{Code: "quality_issue", Label: "Quality issue", RequiresManager: true, CreatedAt: now},
		{Code: "long_wait", Label: "Excessive wait time", RequiresManager: true, CreatedAt: now},
	}
	for _, reason := range reasons {
		var count int64
		if err := tx.WithContext(ctx).Model(&orderdomain.VoidReason{}).
			Where("code = ?", reason.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := tx.WithContext(ctx).Create(&reason).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureDiscountDefinitions(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	now := time.Now().UTC()
	definitions := []discountdomain.Definition{
		{Code: "staff_meal", Name: "Staff meal", Kind: discountdomain.KindPercentage, ValueBps: 5000, RequiresManager: false},
		{Code: "regular_10", Name: "Regular guest 10%", Kind: discountdomain.KindPercentage, ValueBps: 1000, RequiresManager: false},
		{Code: "manager_25", Name: "Manager 25%", Kind: discountdomain.KindPercentage, ValueBps: 2500, RequiresManager: true},
		{Code: "voucher_5", Name: "5 off voucher", Kind: discountdomain.KindFixed, ValueCents: 500, RequiresManager: false},
	}
	for _, definition := range definitions {
		var count int64
		if err := tx.WithContext(ctx).Model(&discountdomain.Definition{}).
			Where("code = ?", definition.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		definition.ID = node.Generate()
		definition.IsActive = true
		definition.CreatedAt = now
		definition.UpdatedAt = now
		if err := tx.WithContext(ctx).Create(&definition).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureTables(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	now := time.Now().UTC()
	for i := 1; i <= 8; i++ {
		label := fmt.Sprintf("T%d", i)
		var count int64
		if err := tx.WithContext(ctx).Model(&tabledomain.Table{}).
			Where("label = ?", label).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		capacity := 2
		if i > 4 {
			capacity = 4
		}
		table := tabledomain.Table{
			ID:        node.Generate(),
			Label:     label,
			Capacity:  capacity,
			Shape:     "square",
			Status:    tabledomain.StatusAvailable,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&table).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureProducts(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	now := time.Now().UTC()
	products := []catalogdomain.Product{
		{SKU: "ESP-001", Name: "Espresso", Category: "drinks", UnitPriceCents: 350},
		{SKU: "LAT-001", Name: "Latte", Category: "drinks", UnitPriceCents: 520},
		{SKU: "BUR-001", Name: "House Burger", Category: "mains", UnitPriceCents: 1450},
		{SKU: "PAS-001", Name: "Carbonara", Category: "mains", UnitPriceCents: 1600},
		{SKU: "SAL-001", Name: "Caesar Salad", Category: "starters", UnitPriceCents: 980},
		{SKU: "CHZ-001", Name: "Cheesecake", Category: "desserts", UnitPriceCents: 750},
	}
	for _, product := range products {
		var count int64
		if err := tx.WithContext(ctx).Model(&catalogdomain.Product{}).
			Where("sku = ?", product.SKU).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		product.ID = node.Generate()
		product.IsActive = true
		product.CreatedAt = now
		product.UpdatedAt = now
		if err := tx.WithContext(ctx).Create(&product).Error; err != nil {
			return err
		}
	}
	return nil
}
