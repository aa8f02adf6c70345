package scheduling

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/requestctx"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("physician", "nurse", "registrar"))
	g.GET("/appointments/slots", h.AvailableSlots)
	g.GET("/appointments", h.List)
	g.GET("/appointments/:id", h.Get)
	g.POST("/appointments", h.Book)
	g.POST("/appointments/recurring", h.BookRecurring)
	g.POST("/appointments/auto", h.AutoAllocate)
	g.PUT("/appointments/:id/reschedule", h.Reschedule)
	g.POST("/appointments/:id/arrive", h.Arrive)
	g.POST("/appointments/:id/complete", h.Complete)
	g.POST("/appointments/:id/cancel", h.Cancel)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// conflictResponse is the 409 body: the conflict plus a fresh booked set so
// the client can re-render without another round trip.
type conflictResponse struct {
	Error       string     `json:"error"`
	Date        string     `json:"date"`
	StartTime   SlotTime   `json:"start_time"`
	BookedSlots []SlotTime `json:"booked_slots"`
}

// httpError maps domain errors onto HTTP statuses.
func httpError(err error) error {
	var conflict *SlotConflictError
	switch {
	case errors.As(err, &conflict):
		return echo.NewHTTPError(http.StatusConflict, conflictResponse{
			Error:       conflict.Error(),
			Date:        conflict.Date.Format("2006-01-02"),
			StartTime:   conflict.StartTime,
			BookedSlots: conflict.BookedSlots,
		})
	case errors.Is(err, ErrSlotTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNoFreeSlot):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) AvailableSlots(c echo.Context) error {
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required as YYYY-MM-DD")
	}
	slots, err := h.svc.AvailableSlots(c.Request().Context(), date)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, slots)
}

type bookingPayload struct {
	PatientID uuid.UUID  `json:"patient_id"`
	DoctorID  *uuid.UUID `json:"doctor_id"`
	Date      string     `json:"date"`
	StartTime string     `json:"start_time"`
	Reason    *string    `json:"reason"`
}

func (p *bookingPayload) toRequest(actor string) (BookingRequest, error) {
	date, err := parseDate(p.Date)
	if err != nil {
		return BookingRequest{}, echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}
	start, err := ParseSlotTime(p.StartTime)
	if err != nil {
		return BookingRequest{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return BookingRequest{
		PatientID: p.PatientID,
		DoctorID:  p.DoctorID,
		Date:      date,
		StartTime: start,
		Reason:    p.Reason,
		CreatedBy: actor,
	}, nil
}

func (h *Handler) Book(c echo.Context) error {
	var payload bookingPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := requestctx.FromContext(c.Request().Context()).ActorID
	req, err := payload.toRequest(actor)
	if err != nil {
		return err
	}
	a, err := h.svc.Book(c.Request().Context(), req)
	if err != nil {
		var conflict *SlotConflictError
		if !errors.As(err, &conflict) && !errors.Is(err, ErrSlotTaken) &&
			!errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidTransition) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

type recurringPayload struct {
	bookingPayload
	Frequency string `json:"frequency"`
	EndDate   string `json:"end_date"`
}

func (h *Handler) BookRecurring(c echo.Context) error {
	var payload recurringPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := requestctx.FromContext(c.Request().Context()).ActorID
	base, err := payload.toRequest(actor)
	if err != nil {
		return err
	}
	endDate, err := parseDate(payload.EndDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid end_date")
	}

	appts, err := h.svc.BookRecurring(c.Request().Context(), RecurringRequest{
		BookingRequest: base,
		Frequency:      Frequency(payload.Frequency),
		EndDate:        endDate,
	})
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return httpError(err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, appts)
}

type autoAllocatePayload struct {
	PatientID uuid.UUID `json:"patient_id"`
	Date      string    `json:"date"`
}

func (h *Handler) AutoAllocate(c echo.Context) error {
	var payload autoAllocatePayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := parseDate(payload.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}
	actor := requestctx.FromContext(c.Request().Context()).ActorID

	a, err := h.svc.AutoAllocate(c.Request().Context(), date, payload.PatientID, actor)
	if err != nil {
		if errors.Is(err, ErrNoFreeSlot) {
			return httpError(err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()

	if d := c.QueryParam("date"); d != "" {
		date, err := parseDate(d)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
		}
		var statuses []string
		if s := c.QueryParam("status"); s != "" {
			statuses = []string{s}
		}
		items, err := h.svc.ListByDate(ctx, date, statuses)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, items)
	}

	if p := c.QueryParam("patient_id"); p != "" {
		pid, err := uuid.Parse(p)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		pg := pagination.FromContext(c)
		items, total, err := h.svc.ListByPatient(ctx, pid, pg.Limit, pg.Offset)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	return echo.NewHTTPError(http.StatusBadRequest, "date or patient_id is required")
}

type reschedulePayload struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var payload reschedulePayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := parseDate(payload.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}
	start, err := ParseSlotTime(payload.StartTime)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.Reschedule(c.Request().Context(), id, date, start)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Arrive(c echo.Context) error   { return h.transition(c, h.svc.Arrive) }
func (h *Handler) Complete(c echo.Context) error { return h.transition(c, h.svc.Complete) }
func (h *Handler) Cancel(c echo.Context) error   { return h.transition(c, h.svc.Cancel) }

func (h *Handler) transition(c echo.Context, fn func(ctx context.Context, id uuid.UUID) (*Appointment, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := fn(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}
