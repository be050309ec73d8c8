package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/concentra-cli/internal/concentration"
	"github.com/KaramelBytes/concentra-cli/internal/dataset"
	"github.com/KaramelBytes/concentra-cli/internal/logger"
	"github.com/KaramelBytes/concentra-cli/internal/period"
	"github.com/KaramelBytes/concentra-cli/internal/schema"
	"github.com/KaramelBytes/concentra-cli/internal/session"
)

// Options configures a Handler.
type Options struct {
	Load           dataset.Options
	MaxUploadBytes int64
	DefaultOrder   period.Order
	// CORSOrigins defaults to DefaultCORSOrigins when empty.
	CORSOrigins []string
}

type Handler struct {
	log   *logger.Logger
	store *session.Store
	calc  *concentration.Calculator
	opt   Options
}

func NewHandler(log *logger.Logger, store *session.Store, calc *concentration.Calculator, opt Options) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	if opt.DefaultOrder == "" {
		opt.DefaultOrder = period.Chronological
	}
	return &Handler{log: log.With("component", "server"), store: store, calc: calc, opt: opt}
}

// SchemaResponse is the classification summary plus the session handle.
type SchemaResponse struct {
	schema.Result
	FileKey string `json:"file_key"`
	Message string `json:"message,omitempty"`
}

type reclassifyBody struct {
	CategoricalColumns []string `json:"categorical_columns"`
	NumericalColumns   []string `json:"numerical_columns"`
	TimeColumns        []string `json:"time_columns"`
}

type timeConcentrationBody struct {
	TimeColumns          []string  `json:"time_columns"`
	AggregateColumns     []string  `json:"aggregate_columns"`
	ConcentrationBuckets []float64 `json:"concentration_buckets"`
	PeriodOrder          string    `json:"period_order"`
	FormatPeriods        bool      `json:"format_periods"`
}

type groupConcentrationBody struct {
	GroupByColumns       []string  `json:"group_by_columns"`
	AggregateColumns     []string  `json:"aggregate_columns"`
	ConcentrationBuckets []float64 `json:"concentration_buckets"`
}

func (h *Handler) Health(c *gin.Context) {
	RespondOK(c, gin.H{"status": "ok"})
}

// readUpload loads the multipart "file" field into a dataset.
func (h *Handler) readUpload(c *gin.Context) (string, *dataset.Dataset, bool) {
	if h.opt.MaxUploadBytes > 0 {
		if c.Request.ContentLength > h.opt.MaxUploadBytes {
			h.respondErr(c, &http.MaxBytesError{Limit: h.opt.MaxUploadBytes})
			return "", nil, false
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opt.MaxUploadBytes)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondErr(c, err)
			return "", nil, false
		}
		RespondError(c, http.StatusBadRequest, "invalid_multipart_form", fmt.Errorf("missing multipart field \"file\": %w", err))
		return "", nil, false
	}
	if !dataset.Supported(fh.Filename) {
		h.respondErr(c, &dataset.SourceError{Name: fh.Filename})
		return "", nil, false
	}
	f, err := fh.Open()
	if err != nil {
		h.respondErr(c, fmt.Errorf("open upload: %w", err))
		return "", nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		h.respondErr(c, fmt.Errorf("read upload: %w", err))
		return "", nil, false
	}
	ds, err := dataset.LoadBytes(fh.Filename, data, h.opt.Load)
	if err != nil {
		if errors.Is(err, dataset.ErrUnsupportedSource) {
			h.respondErr(c, err)
		} else {
			RespondError(c, http.StatusBadRequest, "invalid_file", err)
		}
		return "", nil, false
	}
	return fh.Filename, ds, true
}

// Upload creates a session from a file and returns its initial classification.
func (h *Handler) Upload(c *gin.Context) {
	name, ds, ok := h.readUpload(c)
	if !ok {
		return
	}
	sc := schema.Classify(ds)
	sess := h.store.Create(name, ds, sc)
	c.JSON(http.StatusCreated, SchemaResponse{
		Result:  schema.Summarize(ds, sc),
		FileKey: sess.ID,
		Message: fmt.Sprintf("loaded %s: %d rows, %d columns", name, ds.Len(), ds.NumColumns()),
	})
}

// ReplaceUpload swaps the dataset of an existing session for a new file.
func (h *Handler) ReplaceUpload(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.store.Get(id); err != nil {
		h.respondErr(c, err)
		return
	}
	name, ds, ok := h.readUpload(c)
	if !ok {
		return
	}
	sc := schema.Classify(ds)
	if err := h.store.Replace(id, name, ds, sc); err != nil {
		h.respondErr(c, err)
		return
	}
	RespondOK(c, SchemaResponse{
		Result:  schema.Summarize(ds, sc),
		FileKey: id,
		Message: fmt.Sprintf("replaced with %s: %d rows, %d columns", name, ds.Len(), ds.NumColumns()),
	})
}

func (h *Handler) GetSession(c *gin.Context) {
	sess, err := h.store.Get(c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	RespondOK(c, SchemaResponse{Result: schema.Summarize(sess.Dataset, sess.Schema), FileKey: sess.ID})
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		h.respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReclassifyColumns replaces the session's schema with the supplied lists.
func (h *Handler) ReclassifyColumns(c *gin.Context) {
	var body reclassifyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	id := c.Param("id")
	var res schema.Result
	err := h.store.Update(id, func(s *session.Session) error {
		next, err := schema.Reclassify(s.Dataset, body.CategoricalColumns, body.NumericalColumns, body.TimeColumns)
		if err != nil {
			return err
		}
		s.Schema = next
		res = schema.Summarize(s.Dataset, next)
		return nil
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}
	RespondOK(c, SchemaResponse{Result: res, FileKey: id, Message: "columns reclassified"})
}

func (h *Handler) TimeConcentration(c *gin.Context) {
	var body timeConcentrationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	order := h.opt.DefaultOrder
	if strings.TrimSpace(body.PeriodOrder) != "" {
		o, err := period.ParseOrder(body.PeriodOrder)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		order = o
	}
	sess, err := h.store.Get(c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	res, err := h.calc.TimeConcentration(sess.Dataset, concentration.Request{
		TimeColumns:      body.TimeColumns,
		AggregateColumns: body.AggregateColumns,
		Buckets:          body.ConcentrationBuckets,
		Order:            order,
		FormatPeriods:    body.FormatPeriods,
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}
	RespondOK(c, res)
}

func (h *Handler) GroupConcentration(c *gin.Context) {
	var body groupConcentrationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sess, err := h.store.Get(c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	res, err := h.calc.GroupConcentration(sess.Dataset, concentration.GroupRequest{
		GroupByColumns:   body.GroupByColumns,
		AggregateColumns: body.AggregateColumns,
		Buckets:          body.ConcentrationBuckets,
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}
	RespondOK(c, res)
}
