package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/invitame/wedding-invitation-service/internal/mailer"
	"github.com/invitame/wedding-invitation-service/internal/model"
	"github.com/invitame/wedding-invitation-service/internal/payment"
	"github.com/invitame/wedding-invitation-service/internal/repository"
)

// PublicHandler serves the unauthenticated microsite endpoints: the
// published invitation, the template gallery, gift checkouts and the
// contact form.
type PublicHandler struct {
	Landing  *repository.LandingRepo
	Wishes   *repository.WishListRepo
	Payments *repository.PaymentRepo
	Provider *payment.Client
	Mailer   *mailer.Client
}

func NewPublicHandler(l *repository.LandingRepo, w *repository.WishListRepo,
	p *repository.PaymentRepo, provider *payment.Client, m *mailer.Client) *PublicHandler {
	return &PublicHandler{Landing: l, Wishes: w, Payments: p, Provider: provider, Mailer: m}
}

// publicLanding is the microsite view of a landing page. Bank details
// only appear when the couple turned bank info on; internal ids never
// leave the server.
type publicLanding struct {
	GroomName       string `json:"groom_name"`
	BrideName       string `json:"bride_name"`
	WelcomeMessage  string `json:"welcome_message"`
	Template        string `json:"template"`
	EventDate       string `json:"event_date"`
	CeremonyTime    string `json:"ceremony_time"`
	CeremonyPlace   string `json:"ceremony_location"`
	CeremonyAddress string `json:"ceremony_address"`
	PartyTime       string `json:"party_time"`
	PartyPlace      string `json:"party_location"`
	PartyAddress    string `json:"party_address"`
	CoverImageURL   string `json:"cover_image_url"`
	MusicURL        string `json:"music_url,omitempty"`
	MusicEnabled    bool   `json:"music_enabled"`
	WishListEnabled bool   `json:"wish_list_enabled"`
	BankInfoEnabled bool   `json:"bank_info_enabled"`
	CoupleCode      string `json:"couple_code,omitempty"`
	BankName        string `json:"bank_name,omitempty"`
	BankAccountType string `json:"bank_account_type,omitempty"`
	BankAccount     string `json:"bank_account_number,omitempty"`
	BankHolderID    string `json:"bank_holder_id,omitempty"`
	BankEmail       string `json:"bank_email,omitempty"`
	Slug            string `json:"slug"`
}

func toPublicLanding(l model.LandingPage) publicLanding {
	out := publicLanding{
		GroomName:       l.GroomName,
		BrideName:       l.BrideName,
		WelcomeMessage:  l.WelcomeMessage,
		Template:        l.Template,
		EventDate:       l.EventDate,
		CeremonyTime:    l.CeremonyTime,
		CeremonyPlace:   l.CeremonyPlace,
		CeremonyAddress: l.CeremonyAddress,
		PartyTime:       l.PartyTime,
		PartyPlace:      l.PartyPlace,
		PartyAddress:    l.PartyAddress,
		CoverImageURL:   l.CoverImageURL,
		MusicEnabled:    l.MusicEnabled,
		WishListEnabled: l.WishListEnabled,
		BankInfoEnabled: l.BankInfoEnabled,
	}
	if l.Slug != nil {
		out.Slug = *l.Slug
	}
	if l.MusicEnabled {
		out.MusicURL = l.MusicURL
	}
	if l.CoupleEnabled {
		out.CoupleCode = l.CoupleCode
	}
	if l.BankInfoEnabled {
		out.BankName = l.BankName
		out.BankAccountType = l.BankAccountType
		out.BankAccount = l.BankAccount
		out.BankHolderID = l.BankHolderID
		out.BankEmail = l.BankEmail
	}
	return out
}

// publicWishItem hides payment status details from visitors; they only
// need to know whether a gift is already taken.
type publicWishItem struct {
	ID    uint64           `json:"id"`
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"price"`
	Icon  string           `json:"icon"`
	Paid  bool             `json:"paid"`
}

// Invitation serves a published microsite by slug. Unpublished pages
// and unknown slugs both read as not found.
func (h *PublicHandler) Invitation(c echo.Context) error {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invitation not found"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	l, err := h.Landing.GetBySlug(ctx, slug)
	if err != nil {
		if err == repository.ErrLandingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invitation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load invitation failed"})
	}

	resp := echo.Map{"landing": toPublicLanding(l)}
	if l.WishListEnabled {
		items, err := h.Wishes.ListByOwner(ctx, l.UserID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load wish list failed"})
		}
		public := make([]publicWishItem, 0, len(items))
		for _, it := range items {
			public = append(public, publicWishItem{
				ID: it.ID, Name: it.Name, Price: it.Price, Icon: it.Icon, Paid: it.Paid,
			})
		}
		resp["wish_list"] = public
	}
	return c.JSON(http.StatusOK, resp)
}

// exampleCouples feed the template gallery with one sample invitation
// per template.
var exampleTemplates = map[string]publicLanding{
	"classic": {
		GroomName: "José", BrideName: "María Paz", Template: "classic",
		WelcomeMessage: "¡Nos casamos y queremos celebrarlo contigo!",
		EventDate:      "2026-11-21", CeremonyTime: "17:00",
		CeremonyPlace: "Parroquia San Francisco", CeremonyAddress: "Av. Libertador 1234, Santiago",
		PartyTime: "20:00", PartyPlace: "Casona Las Rosas", PartyAddress: "Camino El Alba 567",
		Slug: "jose-y-maria-paz",
	},
	"modern": {
		GroomName: "Diego", BrideName: "Valentina", Template: "modern",
		WelcomeMessage: "Una nueva etapa comienza, acompáñanos.",
		EventDate:      "2027-01-16", CeremonyTime: "18:30",
		CeremonyPlace: "Registro Civil de Providencia", CeremonyAddress: "Av. Providencia 890",
		PartyTime: "21:00", PartyPlace: "Terraza Cordillera", PartyAddress: "Los Militares 4321",
		Slug: "diego-y-valentina",
	},
	"rustic": {
		GroomName: "Matías", BrideName: "Francisca", Template: "rustic",
		WelcomeMessage: "El amor se celebra en el campo.",
		EventDate:      "2026-10-10", CeremonyTime: "16:00",
		CeremonyPlace: "Viña Santa Elena", CeremonyAddress: "Ruta 68 km 42, Casablanca",
		PartyTime: "19:30", PartyPlace: "Viña Santa Elena", PartyAddress: "Ruta 68 km 42, Casablanca",
		Slug: "matias-y-francisca",
	},
}

// Example serves a sample invitation for one of the built-in templates
// so visitors can preview the designs before signing up.
func (h *PublicHandler) Example(c echo.Context) error {
	tmpl := strings.ToLower(strings.TrimSpace(c.Param("template")))
	sample, ok := exampleTemplates[tmpl]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "template not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"landing": sample})
}

// GiftCheckout opens a checkout session for one wish-list gift. The
// visitor pays at the provider; the webhook marks the gift paid once
// the provider confirms.
func (h *PublicHandler) GiftCheckout(c echo.Context) error {
	if h.Provider == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payments are not configured"})
	}
	slug := strings.TrimSpace(c.Param("slug"))
	itemID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid gift id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	l, err := h.Landing.GetBySlug(ctx, slug)
	if err != nil {
		if err == repository.ErrLandingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invitation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load invitation failed"})
	}
	if !l.WishListEnabled {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "wish list is not available"})
	}
	item, err := h.Wishes.GetByID(ctx, itemID)
	if err != nil || item.UserID != l.UserID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "gift not found"})
	}
	if item.Paid {
		return c.JSON(http.StatusConflict, echo.Map{"error": "gift is already paid"})
	}
	if item.Price == nil || !item.Price.IsPositive() {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "gift has no price"})
	}

	pref, err := h.Provider.CreatePreference(c.Request().Context(), payment.CreatePreferenceRequest{
		Title:             "Regalo de boda: " + item.Name,
		Amount:            *item.Price,
		Currency:          "CLP",
		ExternalReference: fmt.Sprintf("gift:%d", item.ID),
	})
	if err != nil {
		if err == payment.ErrTimeout {
			return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "payment provider timed out"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "create checkout failed"})
	}

	p := model.Payment{
		UserID:       l.UserID,
		Type:         model.PaymentTypeGift,
		Status:       model.PaymentPending,
		PreferenceID: pref.ID,
	}
	if err := h.Payments.Create(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record payment failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"preference_id": pref.ID,
		"init_point":    pref.InitPoint,
	})
}

type contactReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Contact relays a visitor's message to the product team through the
// mail relay. The route sits behind the rate limiter.
func (h *PublicHandler) Contact(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and message required"})
	}
	err := h.Mailer.Relay(c.Request().Context(), mailer.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Subject: strings.TrimSpace(req.Subject),
		Message: req.Message,
	})
	if err != nil {
		if err == mailer.ErrDisabled {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "contact form is not available"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "relay message failed"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"sent": true})
}
