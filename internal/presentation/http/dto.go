package httppresentation

import (
	"time"

	appstats "github.com/Zhima-Mochi/shophub/internal/application/stats"
	domaccount "github.com/Zhima-Mochi/shophub/internal/domain/account"
	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	domreview "github.com/Zhima-Mochi/shophub/internal/domain/review"

	"github.com/shopspring/decimal"
)

// money renders amounts with two decimals, as strings, so clients never see float rounding.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type orderItemResponse struct {
	ID          string `json:"id"`
	OrderID     string `json:"orderId"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
}

type orderResponse struct {
	ID              string                 `json:"id"`
	OrderNumber     string                 `json:"orderNumber"`
	CustomerEmail   string                 `json:"customerEmail"`
	CustomerName    string                 `json:"customerName"`
	CustomerPhone   string                 `json:"customerPhone"`
	ShippingAddress string                 `json:"shippingAddress"`
	ShippingCity    string                 `json:"shippingCity"`
	ShippingZip     string                 `json:"shippingZip"`
	ShippingCountry string                 `json:"shippingCountry"`
	Subtotal        string                 `json:"subtotal"`
	ShippingCost    string                 `json:"shippingCost"`
	Total           string                 `json:"total"`
	Status          domorder.Status        `json:"status"`
	PaymentStatus   domorder.PaymentStatus `json:"paymentStatus"`
	StripePaymentID *string                `json:"stripePaymentId"`
	UserID          *string                `json:"userId"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
	Items           []orderItemResponse    `json:"items"`
}

func newOrderResponse(o *domorder.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ID:          it.ID,
			OrderID:     o.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       money(it.Price),
		})
	}
	return orderResponse{
		ID:              o.ID,
		OrderNumber:     o.Number,
		CustomerEmail:   o.Customer.Email,
		CustomerName:    o.Customer.Name,
		CustomerPhone:   o.Customer.Phone,
		ShippingAddress: o.Customer.ShippingAddress,
		ShippingCity:    o.Customer.ShippingCity,
		ShippingZip:     o.Customer.ShippingZip,
		ShippingCountry: o.Customer.ShippingCountry,
		Subtotal:        money(o.Subtotal),
		ShippingCost:    money(o.ShippingCost),
		Total:           money(o.Total),
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		StripePaymentID: optional(o.PaymentRef),
		UserID:          optional(o.UserID),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           items,
	}
}

func newOrderResponses(orders []*domorder.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderResponse(o))
	}
	return out
}

type productResponse struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Slug        string                   `json:"slug"`
	Description string                   `json:"description"`
	Price       string                   `json:"price"`
	Stock       int                      `json:"stock"`
	Status      domcatalog.ProductStatus `json:"status"`
	CategoryID  string                   `json:"categoryId"`
	Images      []string                 `json:"images"`
	CreatedAt   time.Time                `json:"createdAt"`
	UpdatedAt   time.Time                `json:"updatedAt"`
}

func newProductResponses(products []domcatalog.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		images := p.Images
		if images == nil {
			images = []string{}
		}
		out = append(out, productResponse{
			ID:          p.ID,
			Name:        p.Name,
			Slug:        p.Slug,
			Description: p.Description,
			Price:       money(p.Price),
			Stock:       p.Stock,
			Status:      p.Status,
			CategoryID:  p.CategoryID,
			Images:      images,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	return out
}

type reviewAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type reviewResponse struct {
	ID        string       `json:"id"`
	ProductID string       `json:"productId"`
	UserID    string       `json:"userId"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	User      reviewAuthor `json:"user"`
}

func newReviewResponse(r *domreview.Review) reviewResponse {
	return reviewResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		User:      reviewAuthor{ID: r.UserID, Name: r.UserName},
	}
}

type userSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func newUserSummary(u *domaccount.User) userSummary {
	return userSummary{ID: u.ID, Email: u.Email, Name: u.Name}
}

func newAdminSummary(a *domaccount.Admin) userSummary {
	return userSummary{ID: a.ID, Email: a.Email, Name: a.Name}
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	City      *string   `json:"city"`
	Zip       *string   `json:"zip"`
	Country   *string   `json:"country"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserResponse(u *domaccount.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     optional(u.Phone),
		Address:   optional(u.Address),
		City:      optional(u.City),
		Zip:       optional(u.Zip),
		Country:   optional(u.Country),
		CreatedAt: u.CreatedAt,
	}
}

type statsResponse struct {
	Products struct {
		Total  int `json:"total"`
		Active int `json:"active"`
	} `json:"products"`
	Orders struct {
		Total     int `json:"total"`
		Today     int `json:"today"`
		ThisMonth int `json:"thisMonth"`
		Pending   int `json:"pending"`
	} `json:"orders"`
	Categories struct {
		Total int `json:"total"`
	} `json:"categories"`
	Revenue struct {
		Total     float64 `json:"total"`
		ThisMonth float64 `json:"thisMonth"`
	} `json:"revenue"`
	RecentOrders []orderResponse `json:"recentOrders"`
}

func newStatsResponse(s *appstats.Summary) statsResponse {
	var out statsResponse
	out.Products.Total = s.Products.Total
	out.Products.Active = s.Products.Active
	out.Orders.Total = s.Orders.Total
	out.Orders.Today = s.Orders.Today
	out.Orders.ThisMonth = s.Orders.ThisMonth
	out.Orders.Pending = s.Orders.Pending
	out.Categories.Total = s.Categories.Total
	out.Revenue.Total = s.Revenue.Total.Round(2).InexactFloat64()
	out.Revenue.ThisMonth = s.Revenue.ThisMonth.Round(2).InexactFloat64()
	out.RecentOrders = newOrderResponses(s.RecentOrders)
	return out
}
