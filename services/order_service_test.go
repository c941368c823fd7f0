package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/food-store/models"
)

func shipping() CheckoutRequest {
	return CheckoutRequest{
		Recipient: "Ada",
		Phone:     "123456789",
		Address:   "12 Analytical Way",
		City:      "London",
		Country:   "UK",
		Zip:       "N1",
	}
}

func TestGetOrCreateCart_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db)
	user := createUser(t, db, "ada@example.com")
	ctx := context.Background()

	first, err := svc.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)
	second, err := svc.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, StatusCart, first.Status.Name)
	assert.True(t, first.Total.IsZero())
	assert.True(t, first.DeliveryCharges.IsZero())
	assert.Equal(t, "Lovelace Ada", first.Recipient)
	assert.Equal(t, user.Address, first.Address)
}

func TestGetOrCreateCart_UnknownUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db)

	_, err := svc.GetOrCreateCart(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetOrCreateCart_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db)
	user := createUser(t, db, "ada@example.com")
	pizza := createFood(t, db, "Pizza", 50)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 10)
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				cart, err := svc.AddItem(ctx, user.ID, pizza.ID, 1)
				if err == nil {
					ids[i] = cart.ID
				}
				errs[i] = err
				return
			}
			cart, err := svc.GetOrCreateCart(ctx, user.ID)
			if err == nil {
				ids[i] = cart.ID
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var carts int64
	db.Model(&models.Bill{}).Where("cart_owner_id = ?", user.ID).Count(&carts)
	assert.EqualValues(t, 1, carts)

	cart, err := svc.Cart(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.True(t, dec(250).Equal(cart.Total), cart.Total.String())
}

func TestAddItem_SameFoodMerges(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db)
	user := createUser(t, db, "ada@example.com")
	pizza := createFood(t, db, "Pizza", 50)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user.ID, pizza.ID, 1)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, user.ID, pizza.ID, 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.True(t, dec(150).Equal(cart.Total))
}

func TestAddItem_Rejections(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db)
	user := createUser(t, db, "ada@example.com")
	pizza := createFood(t, db, "Pizza", 50)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user.ID, pizza.ID, 0)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "quantity")

	_, err = svc.AddItem(ctx, user.ID, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddItem_PriceSnapshot(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db)
	user := createUser(t, db, "ada@example.com")
	pizza := createFood(t, db, "Pizza", 50)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user.ID, pizza.ID, 1)
	require.NoError(t, err)
	require.NoError(t, db.Model(&pizza).Update("price", dec(80)).Error)

	cart, err := svc.AddItem(ctx, user.ID, pizza.ID, 1)
	require.NoError(t, err)
	assert.True(t, dec(50).Equal(cart.Items[0].UnitPrice))
	assert.True(t, dec(100).Equal(cart.Total))
}

func TestTotalsFollowItemMutations(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db)
	user := createUser(t, db, "ada@example.com")
	pizza := createFood(t, db, "Pizza", 50)
	sushi := createFood(t, db, "Sushi", 100)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user.ID, pizza.ID, 2)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, user.ID, sushi.ID, 1)
	require.NoError(t, err)
	assert.True(t, dec(200).Equal(cart.Total), cart.Total.String())
	assert.True(t, cart.Subtotal().Equal(cart.Total))

	var pizzaItem models.Item
	for _, item := range cart.Items {
		if item.FoodID == pizza.ID {
			pizzaItem = item
		}
	}

	cart, err = svc.RemoveItem(ctx, user.ID, pizzaItem.ID)
	require.NoError(t, err)
	assert.True(t, dec(100).Equal(cart.Total), cart.Total.String())
	require.Len(t, cart.Items, 1)

	cart, err = svc.UpdateItemQuantity(ctx, user.ID, cart.Items[0].ID, 3)
	require.NoError(t, err)
	assert.True(t, dec(300).Equal(cart.Total))

	cart, err = svc.UpdateItemQuantity(ctx, user.ID, cart.Items[0].ID, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())

	total, err := svc.Recompute(ctx, cart.ID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestRemoveItem_OwnershipRules(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db)
	ada := createUser(t, db, "ada@example.com")
	bob := createUser(t, db, "bob@example.com")
	pizza := createFood(t, db, "Pizza", 50)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, ada.ID, pizza.ID, 1)
	require.NoError(t, err)

	_, err = svc.RemoveItem(ctx, bob.ID, cart.Items[0].ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.RemoveItem(ctx, ada.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	// Lines of a placed order are no longer editable.
	result, err := svc.Checkout(ctx, ada.ID, shipping())
	require.NoError(t, err)
	_, err = svc.RemoveItem(ctx, ada.ID, result.Order.Items[0].ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCheckout_PlacesOrderAndOpensNewCart(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db)
	user := createUser(t, db, "ada@example.com")
	pizza := createFood(t, db, "Pizza", 50)
	sushi := createFood(t, db, "Sushi", 100)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user.ID, pizza.ID, 2)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, user.ID, sushi.ID, 1)
	require.NoError(t, err)

	req := shipping()
	req.DeliveryCharges = dec(5)
	req.ShippingNote = "ring twice"
	result, err := svc.Checkout(ctx, user.ID, req)
	require.NoError(t, err)

	order := result.Order
	assert.Equal(t, cart.ID, order.ID)
	assert.Equal(t, StatusProcessing, order.Status.Name)
	assert.True(t, dec(205).Equal(order.Total), order.Total.String())
	assert.Equal(t, "ring twice", order.ShippingNote)
	assert.Equal(t, "123456789", order.Phone)

	require.NotNil(t, result.Cart)
	assert.NotEqual(t, order.ID, result.Cart.ID)
	assert.Equal(t, StatusCart, result.Cart.Status.Name)

	again, err := svc.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Cart.ID, again.ID)

	var reloaded models.Food
	require.NoError(t, db.First(&reloaded, "id = ?", pizza.ID).Error)
	assert.Equal(t, 2, reloaded.OrderCount)
	var sushiRow models.Food
	require.NoError(t, db.First(&sushiRow, "id = ?", sushi.ID).Error)
	assert.Equal(t, 1, sushiRow.OrderCount)

	orders, err := svc.Orders(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
}

func TestCheckout_BlankShippingUsesProfile(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db)
	user := createUser(t, db, "ada@example.com")
	pizza := createFood(t, db, "Pizza", 50)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user.ID, pizza.ID, 1)
	require.NoError(t, err)

	result, err := svc.Checkout(ctx, user.ID, CheckoutRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Lovelace Ada", result.Order.Recipient)
	assert.Equal(t, user.Phone, result.Order.Phone)
}

func TestCheckout_InvalidShipping(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db)
	user := createUser(t, db, "ada@example.com")
	pizza := createFood(t, db, "Pizza", 50)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, user.ID, pizza.ID, 1)
	require.NoError(t, err)

	req := shipping()
	req.Phone = "1234567890123"
	_, err = svc.Checkout(ctx, user.ID, req)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), err)
	assert.Contains(t, ve.Fields, "phone")

	still, err := svc.Cart(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, still.ID)
	assert.Equal(t, StatusCart, still.Status.Name)
}

func TestCheckout_EmptyCart(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db)
	user := createUser(t, db, "ada@example.com")
	ctx := context.Background()

	cart, err := svc.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, user.ID, shipping())
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "items")

	after, err := svc.Cart(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, after.ID)
	assert.Equal(t, StatusCart, after.Status.Name)
}

func TestCheckout_Coupons(t *testing.T) {
	today := time.Now()
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)
	lastWeek := today.AddDate(0, 0, -7)

	tests := []struct {
		name      string
		start     time.Time
		end       *time.Time
		inactive  bool
		code      string
		wantTotal int64
	}{
		{name: "valid window", start: yesterday, end: &tomorrow, code: "SAVE50", wantTotal: 150},
		{name: "expired", start: lastWeek, end: &yesterday, code: "SAVE50", wantTotal: 200},
		{name: "inactive", start: yesterday, inactive: true, code: "SAVE50", wantTotal: 200},
		{name: "unknown code", start: yesterday, end: &tomorrow, code: "NOPE", wantTotal: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			svc := NewOrderService(db)
			user := createUser(t, db, "ada@example.com")
			pizza := createFood(t, db, "Pizza", 50)
			sushi := createFood(t, db, "Sushi", 100)
			coupon := createCoupon(t, db, "SAVE50", 50, tt.start, tt.end)
			if tt.inactive {
				require.NoError(t, db.Model(&coupon).Update("is_active", false).Error)
			}
			ctx := context.Background()

			_, err := svc.AddItem(ctx, user.ID, pizza.ID, 2)
			require.NoError(t, err)
			_, err = svc.AddItem(ctx, user.ID, sushi.ID, 1)
			require.NoError(t, err)

			req := shipping()
			req.CouponCode = tt.code
			result, err := svc.Checkout(ctx, user.ID, req)
			require.NoError(t, err)
			assert.True(t, dec(tt.wantTotal).Equal(result.Order.Total), result.Order.Total.String())
			if tt.wantTotal == 150 {
				require.NotNil(t, result.Order.CouponID)
				assert.Equal(t, coupon.ID, *result.Order.CouponID)
			} else {
				assert.Nil(t, result.Order.CouponID)
			}
		})
	}
}

func TestCheckout_CouponLargerThanSubtotal(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db)
	user := createUser(t, db, "ada@example.com")
	taco := createFood(t, db, "Taco", 40)
	createCoupon(t, db, "BIG", 100, time.Now().AddDate(0, 0, -1), nil)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user.ID, taco.ID, 1)
	require.NoError(t, err)

	req := shipping()
	req.CouponCode = "BIG"
	req.DeliveryCharges = dec(5)
	result, err := svc.Checkout(ctx, user.ID, req)
	require.NoError(t, err)
	assert.True(t, dec(40).Equal(result.Order.Discount))
	assert.True(t, dec(5).Equal(result.Order.Total), result.Order.Total.String())
}

func TestCancelOrder(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db)
	user := createUser(t, db, "ada@example.com")
	other := createUser(t, db, "bob@example.com")
	pizza := createFood(t, db, "Pizza", 50)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user.ID, pizza.ID, 2)
	require.NoError(t, err)
	result, err := svc.Checkout(ctx, user.ID, shipping())
	require.NoError(t, err)

	_, err = svc.CancelOrder(ctx, other.ID, result.Order.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CancelOrder(ctx, user.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CancelOrder(ctx, user.ID, result.Cart.ID)
	assert.ErrorIs(t, err, ErrConflict)

	cancelled, err := svc.CancelOrder(ctx, user.ID, result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status.Name)
	assert.Len(t, cancelled.Items, 1)

	_, err = svc.CancelOrder(ctx, user.ID, result.Order.ID)
	assert.ErrorIs(t, err, ErrConflict)

	var reloaded models.Food
	require.NoError(t, db.First(&reloaded, "id = ?", pizza.ID).Error)
	assert.Equal(t, 2, reloaded.OrderCount)
}

func TestSetOrderStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db)
	user := createUser(t, db, "ada@example.com")
	pizza := createFood(t, db, "Pizza", 50)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user.ID, pizza.ID, 1)
	require.NoError(t, err)
	result, err := svc.Checkout(ctx, user.ID, shipping())
	require.NoError(t, err)

	_, err = svc.SetOrderStatus(ctx, result.Cart.ID, StatusShipped)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.SetOrderStatus(ctx, result.Order.ID, "teleported")
	assert.ErrorIs(t, err, ErrNotFound)

	shipped, err := svc.SetOrderStatus(ctx, result.Order.ID, StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, shipped.Status.Name)
	assert.Nil(t, shipped.ReceivedDate)

	delivered, err := svc.SetOrderStatus(ctx, result.Order.ID, StatusDelivered)
	require.NoError(t, err)
	assert.NotNil(t, delivered.ReceivedDate)

	_, err = svc.CancelOrder(ctx, user.ID, result.Order.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.SetOrderStatus(ctx, result.Order.ID, StatusCancelled)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestOrder_Ownership(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db)
	user := createUser(t, db, "ada@example.com")
	other := createUser(t, db, "bob@example.com")
	pizza := createFood(t, db, "Pizza", 50)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user.ID, pizza.ID, 1)
	require.NoError(t, err)
	result, err := svc.Checkout(ctx, user.ID, shipping())
	require.NoError(t, err)

	got, err := svc.Order(ctx, user.ID, result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Order.ID, got.ID)

	_, err = svc.Order(ctx, other.ID, result.Order.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPreviewCheckout(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db)
	user := createUser(t, db, "ada@example.com")
	pizza := createFood(t, db, "Pizza", 50)
	sushi := createFood(t, db, "Sushi", 100)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, user.ID, pizza.ID, 1)
	require.NoError(t, err)
	// The cart line keeps the price it was added at.
	require.NoError(t, db.Model(&pizza).Update("price", dec(70)).Error)

	preview, err := svc.PreviewCheckout(ctx, user.ID, map[uuid.UUID]int{pizza.ID: 2, sushi.ID: 1}, dec(5))
	require.NoError(t, err)
	require.Len(t, preview.Lines, 2)
	assert.Equal(t, "Pizza", preview.Lines[0].Food.Name)
	assert.True(t, dec(50).Equal(preview.Lines[0].UnitPrice))
	assert.True(t, dec(200).Equal(preview.Subtotal), preview.Subtotal.String())
	assert.True(t, dec(205).Equal(preview.Total))
	assert.Equal(t, 3, preview.ItemCount)

	after, err := svc.Cart(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, cart.Total.Equal(after.Total))
	assert.Equal(t, 1, after.Items[0].Quantity)

	_, err = svc.PreviewCheckout(ctx, user.ID, map[uuid.UUID]int{uuid.New(): 1}, decimal.Zero)
	assert.ErrorIs(t, err, ErrNotFound)

	var ve *ValidationError
	_, err = svc.PreviewCheckout(ctx, user.ID, map[uuid.UUID]int{pizza.ID: 0}, decimal.Zero)
	assert.True(t, errors.As(err, &ve))
	_, err = svc.PreviewCheckout(ctx, user.ID, nil, decimal.Zero)
	assert.True(t, errors.As(err, &ve))
}
