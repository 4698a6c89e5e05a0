package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "intent-classifier/internal/common/errors"
	"intent-classifier/internal/models"
	"intent-classifier/internal/submission"
)

const (
	DefaultIntents  = `{"saludo": "Detectar saludos", "despedida": "Detectar despedidas"}`
	DefaultEntities = `{"nombre": "Nombre propio", "ciudad": "Nombre de una ciudad"}`
)

type formView struct {
	Input    string
	Intents  string
	Entities string
	Success  string
	Error    string
	Result   string
}

// ClassifyRequest is the JSON API body. Taxonomies may be objects or JSON
// strings holding an object.
type ClassifyRequest struct {
	Input    string          `json:"input"`
	Intents  json.RawMessage `json:"intents"`
	Entities json.RawMessage `json:"entities"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleForm(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", formView{
		Intents:  DefaultIntents,
		Entities: DefaultEntities,
	})
}

func (s *Server) handleFormSubmit(c *gin.Context) {
	view := formView{
		Input:    c.PostForm("user_input"),
		Intents:  c.PostForm("intents"),
		Entities: c.PostForm("entities"),
	}

	res, err := s.submitter.Submit(c.Request.Context(), submission.Form{
		Input:        view.Input,
		IntentsJSON:  view.Intents,
		EntitiesJSON: view.Entities,
		Source:       submission.SourceForm,
	})
	if err != nil {
		view.Error = "Error: " + err.Error()
		c.HTML(statusFor(err), "index.html", view)
		return
	}

	pretty, _ := json.MarshalIndent(res.Classification, "", "  ")
	view.Success = fmt.Sprintf("Clasificación completada en %.2f segundos", res.ResponseTime)
	view.Result = string(pretty)
	c.HTML(http.StatusOK, "index.html", view)
}

func (s *Server) handleClassify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, apperrors.NewInputError("request body", err))
		return
	}

	res, err := s.submitter.Submit(c.Request.Context(), submission.Form{
		Input:        req.Input,
		IntentsJSON:  models.TaxonomyText(req.Intents),
		EntitiesJSON: models.TaxonomyText(req.Entities),
		Source:       submission.SourceAPI,
	})
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) renderError(c *gin.Context, err error) {
	stdErr := apperrors.AsStandard(err)
	c.JSON(statusFor(stdErr), gin.H{"error": errorBody{
		Code:    string(stdErr.Code),
		Message: stdErr.Error(),
	}})
}

func statusFor(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeInput:
		return http.StatusBadRequest
	case apperrors.ErrCodeTransport:
		return http.StatusBadGateway
	case apperrors.ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeSink:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
