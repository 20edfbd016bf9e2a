package main

import (
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"
	"time"

	"topicquiz"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	sessionName = "quiz-session"
	callerIDKey = "caller_id"
)

//go:embed templates/quiz.html
var templateFS embed.FS

// Server serves the quiz page and the JSON API
type Server struct {
	generator *topicquiz.QuizGenerator
	grader    *topicquiz.QuizGrader
	cookies   sessions.Store
	gatherer  prometheus.Gatherer
	page      *template.Template
}

type generateRequest struct {
	Topic string `json:"topic"`
}

type generateResponse struct {
	Questions []topicquiz.QuizQuestion `json:"questions"`
}

type submitRequest struct {
	Answers topicquiz.Answers `json:"answers"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer creates the HTTP server. cookies carries only the signed caller
// id; quizzes live in the generator's and grader's session store.
func NewServer(generator *topicquiz.QuizGenerator, grader *topicquiz.QuizGrader, cookies sessions.Store, gatherer prometheus.Gatherer) *Server {
	return &Server{
		generator: generator,
		grader:    grader,
		cookies:   cookies,
		gatherer:  gatherer,
		page:      template.Must(template.ParseFS(templateFS, "templates/quiz.html")),
	}
}

// Router builds the gin engine. CORS is enabled only when origins are given.
func (s *Server) Router(corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if len(corsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Accept", "Origin"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.SetHTMLTemplate(s.page)

	r.GET("/", s.handleIndex)
	r.POST("/generate", s.handleGenerate)
	r.POST("/submit", s.handleSubmit)
	r.GET("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	return r
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "quiz.html", gin.H{
		"NumQuestions": topicquiz.QuestionsPerQuiz,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	callerID, err := s.callerID(c, true)
	if err != nil {
		log.Printf("Session save error: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to generate quiz: session unavailable"})
		return
	}

	quiz, err := s.generator.GenerateQuiz(c.Request.Context(), callerID, req.Topic)
	if err != nil {
		var genErr *topicquiz.GenerationError
		switch {
		case errors.Is(err, topicquiz.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, errorResponse{Error: "Please provide a topic"})
		case errors.As(err, &genErr):
			c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to generate quiz: " + genErr.Message})
		default:
			c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to generate quiz: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, generateResponse{Questions: quiz.Questions})
}

func (s *Server) handleSubmit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	callerID, _ := s.callerID(c, false)
	if callerID == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "No quiz in session"})
		return
	}

	summary, err := s.grader.GradeQuiz(c.Request.Context(), callerID, req.Answers)
	if err != nil {
		if errors.Is(err, topicquiz.ErrNoActiveQuiz) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "No quiz in session"})
			return
		}
		log.Printf("Failed to grade quiz for %s: %v", callerID, err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to grade quiz"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// callerID returns the caller id carried by the session cookie. With create
// set, a caller without one is assigned a new id and the cookie is saved.
func (s *Server) callerID(c *gin.Context, create bool) (string, error) {
	session, err := s.cookies.Get(c.Request, sessionName)
	if err != nil {
		// a cookie that fails verification yields a fresh session
		topicquiz.VerboseLog("Discarding session cookie: %v", err)
	}

	if id, ok := session.Values[callerIDKey].(string); ok && id != "" {
		return id, nil
	}
	if !create {
		return "", nil
	}

	id := uuid.NewString()
	session.Values[callerIDKey] = id
	if err := session.Save(c.Request, c.Writer); err != nil {
		return "", err
	}
	return id, nil
}
