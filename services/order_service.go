package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/food-store/models"
	"github.com/yeremiapane/food-store/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderService owns the cart/order lifecycle. Every mutation runs in one transaction
// while holding the caller's user lock, and totals are only written by recompute.
type OrderService struct {
	db    *gorm.DB
	locks *userLocks
	now   func() time.Time
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{
		db:    db,
		locks: newUserLocks(),
		now:   time.Now,
	}
}

// CheckoutRequest holds the shipping details submitted with an order. Blank fields fall
// back to the values the cart was created with.
type CheckoutRequest struct {
	Recipient       string          `json:"recipient" validate:"required,max=50"`
	Phone           string          `json:"phone" validate:"required,max=12"`
	Address         string          `json:"address" validate:"required,max=255"`
	City            string          `json:"city" validate:"max=100"`
	Country         string          `json:"country" validate:"max=100"`
	Zip             string          `json:"zip" validate:"max=100"`
	ShippingNote    string          `json:"shipping_note"`
	CouponCode      string          `json:"coupon"`
	DeliveryCharges decimal.Decimal `json:"delivery_charges"`
}

type CheckoutResult struct {
	Order *models.Bill `json:"order"`
	Cart  *models.Bill `json:"cart"`
}

type PreviewLine struct {
	Food      models.Food     `json:"food"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CheckoutPreview struct {
	Lines           []PreviewLine   `json:"lines"`
	ItemCount       int             `json:"item_count"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryCharges decimal.Decimal `json:"delivery_charges"`
	Total           decimal.Decimal `json:"total"`
}

func (s *OrderService) withUserTx(ctx context.Context, userID uuid.UUID, fn func(tx *gorm.DB) error) error {
	unlock := s.locks.lock(userID)
	defer unlock()
	return s.db.WithContext(ctx).Transaction(fn)
}

// GetOrCreateCart returns the user's cart, creating an empty one when none exists.
func (s *OrderService) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Bill, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	var cart *models.Bill
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		cart, err = s.cartTx(tx, userID)
		return err
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		// Another process may have won the insert; the unique cart index rejected ours.
		if existing, findErr := s.findCart(s.db.WithContext(ctx), userID); findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return cart, err
}

// Cart is GetOrCreateCart with items and their foods loaded.
func (s *OrderService) Cart(ctx context.Context, userID uuid.UUID) (*models.Bill, error) {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.loadBill(s.db.WithContext(ctx), cart.ID)
}

func (s *OrderService) AddItem(ctx context.Context, userID, foodID uuid.UUID, quantity int) (*models.Bill, error) {
	if quantity < 1 {
		return nil, newValidationError("quantity", "must be at least 1")
	}

	var cart *models.Bill
	err := s.withUserTx(ctx, userID, func(tx *gorm.DB) error {
		c, err := s.cartTx(tx, userID)
		if err != nil {
			return err
		}

		var food models.Food
		if err := tx.First(&food, "id = ?", foodID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("food", foodID)
			}
			return err
		}

		var item models.Item
		err = tx.Where("bill_id = ? AND food_id = ?", c.ID, food.ID).First(&item).Error
		switch {
		case err == nil:
			if err := tx.Model(&item).Update("quantity", gorm.Expr("quantity + ?", quantity)).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = models.Item{
				BillID:    c.ID,
				FoodID:    food.ID,
				Quantity:  quantity,
				UnitPrice: food.Price,
			}
			if err := tx.Omit(clause.Associations).Create(&item).Error; err != nil {
				return err
			}
		default:
			return err
		}

		if err := s.recompute(tx, c); err != nil {
			return err
		}
		cart, err = s.loadBill(tx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(map[string]interface{}{
		"user_id": userID, "food_id": foodID, "quantity": quantity,
	}).Debug("Item added to cart")
	return cart, nil
}

// RemoveItem deletes the whole line, whatever its quantity.
func (s *OrderService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Bill, error) {
	return s.UpdateItemQuantity(ctx, userID, itemID, 0)
}

// UpdateItemQuantity sets a cart line's quantity. Zero or less removes the line.
func (s *OrderService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.Bill, error) {
	var cart *models.Bill
	err := s.withUserTx(ctx, userID, func(tx *gorm.DB) error {
		c, err := s.cartTx(tx, userID)
		if err != nil {
			return err
		}

		item, err := cartItem(tx, c, itemID)
		if err != nil {
			return err
		}

		if quantity <= 0 {
			err = tx.Delete(item).Error
		} else {
			err = tx.Model(item).Update("quantity", quantity).Error
		}
		if err != nil {
			return err
		}

		if err := s.recompute(tx, c); err != nil {
			return err
		}
		cart, err = s.loadBill(tx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// Recompute rewrites the stored total of a bill from its items.
func (s *OrderService) Recompute(ctx context.Context, billID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bill models.Bill
		if err := tx.First(&bill, "id = ?", billID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("bill", billID)
			}
			return err
		}
		if err := s.recompute(tx, &bill); err != nil {
			return err
		}
		total = bill.Total
		return nil
	})
	return total, err
}

// PreviewCheckout prices a selection of foods without touching stored state. Foods already
// in the cart keep their snapshot price; others are priced at the current menu price.
func (s *OrderService) PreviewCheckout(ctx context.Context, userID uuid.UUID, selections map[uuid.UUID]int, delivery decimal.Decimal) (*CheckoutPreview, error) {
	if len(selections) == 0 {
		return nil, newValidationError("checkoutip", "select at least one item")
	}
	if delivery.IsNegative() {
		return nil, newValidationError("delivery_charges", "must not be negative")
	}

	ids := make([]uuid.UUID, 0, len(selections))
	for id, qty := range selections {
		if qty < 1 {
			return nil, newValidationError("checkoutip", fmt.Sprintf("quantity for %s must be at least 1", id))
		}
		ids = append(ids, id)
	}

	db := s.db.WithContext(ctx)

	var foods []models.Food
	if err := db.Preload("Images").Where("id IN ?", ids).Find(&foods).Error; err != nil {
		return nil, err
	}
	if len(foods) != len(ids) {
		found := make(map[uuid.UUID]bool, len(foods))
		for _, f := range foods {
			found[f.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, notFound("food", id)
			}
		}
	}

	snapshot := make(map[uuid.UUID]decimal.Decimal)
	cart, err := s.findCart(db, userID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		var items []models.Item
		if err := db.Where("bill_id = ?", cart.ID).Find(&items).Error; err != nil {
			return nil, err
		}
		for _, item := range items {
			snapshot[item.FoodID] = item.UnitPrice
		}
	}

	sort.Slice(foods, func(i, j int) bool { return foods[i].Name < foods[j].Name })

	preview := &CheckoutPreview{Subtotal: decimal.Zero, DeliveryCharges: delivery}
	for _, food := range foods {
		price, ok := snapshot[food.ID]
		if !ok {
			price = food.Price
		}
		qty := selections[food.ID]
		line := PreviewLine{
			Food:      food,
			Quantity:  qty,
			UnitPrice: price,
			LineTotal: price.Mul(decimal.NewFromInt(int64(qty))),
		}
		preview.Lines = append(preview.Lines, line)
		preview.ItemCount += qty
		preview.Subtotal = preview.Subtotal.Add(line.LineTotal)
	}
	preview.Total = preview.Subtotal.Add(delivery)
	return preview, nil
}

// Checkout places the user's cart as a processing order and opens a fresh empty cart in
// the same transaction.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResult, error) {
	if req.DeliveryCharges.IsNegative() {
		return nil, newValidationError("delivery_charges", "must not be negative")
	}

	var result *CheckoutResult
	err := s.withUserTx(ctx, userID, func(tx *gorm.DB) error {
		cart, err := s.cartTx(tx, userID)
		if err != nil {
			return err
		}

		var items []models.Item
		if err := tx.Where("bill_id = ?", cart.ID).Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return newValidationError("items", "cart is empty")
		}
		cart.Items = items

		req = withShippingDefaults(req, cart)
		if err := models.Validate(&req); err != nil {
			return fromValidator(err)
		}

		processing, err := s.status(tx, StatusProcessing)
		if err != nil {
			return err
		}

		now := s.now()
		cart.Discount = decimal.Zero
		cart.CouponID = nil
		if code := strings.TrimSpace(req.CouponCode); code != "" {
			coupon, err := findUsableCoupon(tx, code, now)
			if err != nil {
				return err
			}
			if coupon != nil {
				cart.CouponID = &coupon.ID
				cart.Discount = coupon.DiscountFor(cart.Subtotal())
			} else {
				utils.InfoLogger.Printf("Coupon %q ignored for user %s", code, userID)
			}
		}

		cart.StatusID = processing.ID
		cart.CartOwnerID = nil
		cart.Recipient = req.Recipient
		cart.Phone = req.Phone
		cart.Address = req.Address
		cart.City = req.City
		cart.Country = req.Country
		cart.Zip = req.Zip
		cart.ShippingNote = req.ShippingNote
		cart.DeliveryCharges = req.DeliveryCharges
		cart.OrderDate = now

		if err := tx.Omit(clause.Associations).Save(cart).Error; err != nil {
			return err
		}
		if err := s.recompute(tx, cart); err != nil {
			return err
		}

		for _, item := range items {
			if err := tx.Model(&models.Food{}).
				Where("id = ?", item.FoodID).
				UpdateColumn("order_count", gorm.Expr("order_count + ?", item.Quantity)).Error; err != nil {
				return err
			}
		}

		next, err := s.cartTx(tx, userID)
		if err != nil {
			return err
		}
		order, err := s.loadBill(tx, cart.ID)
		if err != nil {
			return err
		}

		result = &CheckoutResult{Order: order, Cart: next}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Order %s placed by user %s (total=%s)", result.Order.ID, userID, result.Order.Total)
	return result, nil
}

// CancelOrder moves one of the user's processing orders to cancelled. Items and food
// order counts are left as they were.
func (s *OrderService) CancelOrder(ctx context.Context, userID, billID uuid.UUID) (*models.Bill, error) {
	var bill *models.Bill
	err := s.withUserTx(ctx, userID, func(tx *gorm.DB) error {
		b, err := s.loadBill(tx, billID)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return fmt.Errorf("order %s: %w", billID, ErrForbidden)
		}
		if !ParseState(b.Status.Name).CanCancel() {
			return fmt.Errorf("order %s is %s and cannot be cancelled: %w", billID, b.Status.Name, ErrConflict)
		}

		cancelled, err := s.status(tx, StatusCancelled)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Bill{}).Where("id = ?", b.ID).Update("status_id", cancelled.ID).Error; err != nil {
			return err
		}

		b.StatusID = cancelled.ID
		b.Status = cancelled
		bill = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Order %s cancelled by user %s", billID, userID)
	return bill, nil
}

// Orders lists the user's placed orders, newest first.
func (s *OrderService) Orders(ctx context.Context, userID uuid.UUID) ([]models.Bill, error) {
	var bills []models.Bill
	err := s.db.WithContext(ctx).
		Preload("Status").
		Preload("Coupon").
		Preload("Items.Food").
		Where("user_id = ? AND cart_owner_id IS NULL", userID).
		Order("order_date desc").
		Find(&bills).Error
	return bills, err
}

func (s *OrderService) Order(ctx context.Context, userID, billID uuid.UUID) (*models.Bill, error) {
	bill, err := s.loadBill(s.db.WithContext(ctx), billID)
	if err != nil {
		return nil, err
	}
	if bill.UserID != userID {
		return nil, fmt.Errorf("order %s: %w", billID, ErrForbidden)
	}
	return bill, nil
}

// SetOrderStatus is the staff-side fulfillment transition. The target status must
// already exist; entering delivered stamps the received date.
func (s *OrderService) SetOrderStatus(ctx context.Context, billID uuid.UUID, name string) (*models.Bill, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newValidationError("status", "is required")
	}

	var owner models.Bill
	if err := s.db.WithContext(ctx).Select("id", "user_id").First(&owner, "id = ?", billID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("order", billID)
		}
		return nil, err
	}

	var bill *models.Bill
	err := s.withUserTx(ctx, owner.UserID, func(tx *gorm.DB) error {
		b, err := s.loadBill(tx, billID)
		if err != nil {
			return err
		}

		var next models.Status
		if err := tx.Where("name = ?", name).First(&next).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("status", name)
			}
			return err
		}

		if !ParseState(b.Status.Name).CanTransitionTo(ParseState(next.Name)) {
			return fmt.Errorf("order %s cannot move from %s to %s: %w", billID, b.Status.Name, next.Name, ErrConflict)
		}

		updates := map[string]interface{}{"status_id": next.ID}
		if next.Name == StatusDelivered {
			now := s.now()
			updates["received_date"] = now
			b.ReceivedDate = &now
		}
		if err := tx.Model(&models.Bill{}).Where("id = ?", b.ID).Updates(updates).Error; err != nil {
			return err
		}

		b.StatusID = next.ID
		b.Status = next
		bill = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// cartTx finds or creates the user's cart inside tx.
func (s *OrderService) cartTx(tx *gorm.DB, userID uuid.UUID) (*models.Bill, error) {
	cart, err := s.findCart(tx, userID)
	if err != nil || cart != nil {
		return cart, err
	}

	var user models.User
	if err := tx.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user", userID)
		}
		return nil, err
	}

	status, err := s.status(tx, StatusCart)
	if err != nil {
		return nil, err
	}

	owner := user.ID
	cart = &models.Bill{
		UserID:          user.ID,
		StatusID:        status.ID,
		CartOwnerID:     &owner,
		Total:           decimal.Zero,
		DeliveryCharges: decimal.Zero,
		Recipient:       truncate(strings.TrimSpace(user.String()), 50),
		Phone:           user.Phone,
		Address:         user.Address,
		City:            user.City,
		Country:         user.Country,
		Zip:             user.Zip,
		OrderDate:       s.now(),
	}
	if err := tx.Omit(clause.Associations).Create(cart).Error; err != nil {
		return nil, err
	}
	cart.Status = status
	return cart, nil
}

// findCart returns nil without error when the user has no cart yet.
func (s *OrderService) findCart(db *gorm.DB, userID uuid.UUID) (*models.Bill, error) {
	var cart models.Bill
	err := db.Preload("Status").Where("cart_owner_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *OrderService) loadBill(db *gorm.DB, billID uuid.UUID) (*models.Bill, error) {
	var bill models.Bill
	err := db.Preload("Status").
		Preload("Coupon").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("Items.Food").
		First(&bill, "id = ?", billID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("order", billID)
		}
		return nil, err
	}
	return &bill, nil
}

func (s *OrderService) status(tx *gorm.DB, name string) (models.Status, error) {
	var status models.Status
	err := tx.Where(models.Status{Name: name}).FirstOrCreate(&status).Error
	return status, err
}

// recompute is the single writer of Bill.Total: items sum, minus the stored discount
// (capped at that sum), plus delivery charges.
func (s *OrderService) recompute(tx *gorm.DB, bill *models.Bill) error {
	var items []models.Item
	if err := tx.Where("bill_id = ?", bill.ID).Find(&items).Error; err != nil {
		return err
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	discount := decimal.Min(decimal.Max(bill.Discount, decimal.Zero), subtotal)
	total := subtotal.Sub(discount).Add(bill.DeliveryCharges)

	if err := tx.Model(&models.Bill{}).Where("id = ?", bill.ID).Updates(map[string]interface{}{
		"total":    total,
		"discount": discount,
	}).Error; err != nil {
		return err
	}

	bill.Total = total
	bill.Discount = discount
	return nil
}

// cartItem resolves itemID to a line of cart, telling a missing item apart from someone
// else's.
func cartItem(tx *gorm.DB, cart *models.Bill, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("item", itemID)
		}
		return nil, err
	}
	if item.BillID != cart.ID {
		return nil, fmt.Errorf("item %s is not in your cart: %w", itemID, ErrForbidden)
	}
	return &item, nil
}

func withShippingDefaults(req CheckoutRequest, cart *models.Bill) CheckoutRequest {
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		} else {
			*v = strings.TrimSpace(*v)
		}
	}
	fill(&req.Recipient, cart.Recipient)
	fill(&req.Phone, cart.Phone)
	fill(&req.Address, cart.Address)
	fill(&req.City, cart.City)
	fill(&req.Country, cart.Country)
	fill(&req.Zip, cart.Zip)
	return req
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
