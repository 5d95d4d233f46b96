package payment

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/joshu-sajeev/upiqr/common"
	"github.com/joshu-sajeev/upiqr/internal/dto"
	"github.com/joshu-sajeev/upiqr/internal/qr"
	"github.com/joshu-sajeev/upiqr/internal/upi"
	"github.com/joshu-sajeev/upiqr/middleware"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

type PaymentHandler struct {
	service PaymentServiceInterface
	page    *template.Template
}

func NewPaymentHandler(s PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: s, page: pageTemplate}
}

var _ PaymentHandlerInterface = (*PaymentHandler)(nil)

// Register mounts the page and API routes on r.
func (h *PaymentHandler) Register(r gin.IRouter) {
	r.GET("/", h.Index)
	r.POST("/generate", h.GenerateForm)
	r.GET("/download", h.Download)
	r.GET("/pay", h.Pay)

	api := r.Group("/api")
	api.POST("/links", h.CreateLink)
	api.POST("/links/decode", h.DecodeLink)
	api.POST("/cards", h.CreateCard)
}

type pageView struct {
	Fields dto.FormFields
	Errors dto.ValidationErrors
	Notice string
	Result *resultView
}

type resultView struct {
	URI         string
	Fields      dto.FormFields
	QR          template.URL
	Filename    string
	DownloadURL string
	PayURL      string
}

// Index renders the empty form.
func (h *PaymentHandler) Index(c *gin.Context) {
	h.renderPage(c, http.StatusOK, pageView{})
}

// GenerateForm handles the form submit. Validation errors are shown
// inline, render failures as a notice; the form always stays editable.
func (h *PaymentHandler) GenerateForm(c *gin.Context) {
	var fields dto.FormFields
	if err := c.ShouldBind(&fields); err != nil {
		h.renderPage(c, http.StatusBadRequest, pageView{Notice: "Could not read the form."})
		return
	}

	res, err := h.service.Generate(c.Request.Context(), fields)
	if err != nil {
		h.renderPage(c, common.StatusOf(err), failedView(fields, err))
		return
	}

	h.renderPage(c, http.StatusOK, pageView{
		Fields: fields,
		Result: &resultView{
			URI:         res.Link.URI,
			Fields:      res.Link.Fields,
			QR:          template.URL(qr.DataURL(res.QR)),
			Filename:    upi.Filename(res.Link.Fields.PayeeName),
			DownloadURL: "/download?" + fieldsQuery(res.Link.Fields),
			PayURL:      "/pay?" + fieldsQuery(res.Link.Fields),
		},
	})
}

// Download returns the payment card as a PNG attachment.
func (h *PaymentHandler) Download(c *gin.Context) {
	var fields dto.FormFields
	if err := c.ShouldBindQuery(&fields); err != nil {
		h.renderPage(c, http.StatusBadRequest, pageView{Notice: "Could not read the download request."})
		return
	}

	res, err := h.service.Export(c.Request.Context(), fields)
	if err != nil {
		view := failedView(fields, err)
		if view.Notice == "" {
			view.Notice = "Download failed. Check the highlighted fields."
		}
		h.renderPage(c, common.StatusOf(err), view)
		return
	}

	sendPNG(c, res.Filename, res.PNG)
}

// Pay redirects the browser to the deep link so a UPI app can pick it up.
func (h *PaymentHandler) Pay(c *gin.Context) {
	var fields dto.FormFields
	if err := c.ShouldBindQuery(&fields); err != nil {
		h.renderPage(c, http.StatusBadRequest, pageView{Notice: "Could not read the payment request."})
		return
	}

	link, err := h.service.Link(c.Request.Context(), fields)
	if err != nil {
		h.renderPage(c, common.StatusOf(err), failedView(fields, err))
		return
	}

	c.Redirect(http.StatusFound, link.URI)
}

// CreateLink handles POST /api/links and returns the link with its QR
// code as a data URL.
func (h *PaymentHandler) CreateLink(c *gin.Context) {
	var req dto.FormFields
	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	res, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, dto.GenerateResponseDTO{
		URI:      res.Link.URI,
		Fields:   res.Link.Fields,
		QR:       qr.DataURL(res.QR),
		Filename: upi.Filename(res.Link.Fields.PayeeName),
	})
}

// DecodeLink handles POST /api/links/decode.
func (h *PaymentHandler) DecodeLink(c *gin.Context) {
	var req dto.DecodeRequestDTO
	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	fields, err := h.service.Decode(c.Request.Context(), req.URI)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, fields)
}

// CreateCard handles POST /api/cards and returns the card PNG.
func (h *PaymentHandler) CreateCard(c *gin.Context) {
	var req dto.FormFields
	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	res, err := h.service.Export(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	sendPNG(c, res.Filename, res.PNG)
}

func (h *PaymentHandler) renderPage(c *gin.Context, status int, view pageView) {
	if view.Errors == nil {
		view.Errors = dto.ValidationErrors{}
	}
	c.Render(status, render.HTML{Template: h.page, Name: "index.html", Data: view})
}

func failedView(fields dto.FormFields, err error) pageView {
	view := pageView{Fields: fields}

	var apiErr common.APIError
	if errors.As(err, &apiErr) && apiErr.Fields != nil {
		view.Errors = dto.ValidationErrorsFromFields(apiErr.Fields)
		return view
	}

	view.Notice = "Something went wrong: " + err.Error() + ". Please try again."
	return view
}

func sendPNG(c *gin.Context, filename string, png []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "image/png", png)
}

func fieldsQuery(f dto.FormFields) string {
	v := url.Values{}
	v.Set(dto.FieldPayeeID, f.PayeeID)
	v.Set(dto.FieldPayeeName, f.PayeeName)
	v.Set(dto.FieldAmount, f.Amount)
	v.Set(dto.FieldNote, f.Note)
	return v.Encode()
}
