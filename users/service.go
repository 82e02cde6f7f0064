// Package users is a small CRUD service over the User model, wired the way
// every service in apikit is: gin handlers, store operations and apperr
// payloads.
package users

import (
	"context"
	"net/http"
	"strconv"

	"github.com/adonese/apikit/apperr"
	"github.com/adonese/apikit/httpcodes"
	"github.com/adonese/apikit/store"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultAutoQty = 100
	maxAutoQty     = 1000
)

type Service struct {
	store *store.Store
	log   *logrus.Logger
}

func New(s *store.Store, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: s, log: log}
}

// RegisterRoutes mounts the user and code lookup endpoints on r.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/users/count", s.Count)
	r.GET("/users", s.List)
	r.GET("/users/:id", s.Get)
	r.POST("/users", s.Create)
	r.POST("/users/bulk", s.CreateMany)
	r.GET("/users/bulk/auto", s.CreateAuto)
	r.PUT("/users/:id", s.Update)
	r.DELETE("/users/:id", s.Delete)
	r.GET("/codes", Codes)
}

// Count returns the number of users.
func (s *Service) Count(c *gin.Context) {
	n, err := s.store.CountQuery(c.Request.Context(), &User{})
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// List pages through users ordered by creation date.
func (s *Service) List(c *gin.Context) {
	limit, err := intQuery(c, "limit", store.DefaultLimit)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		apperr.Abort(c, err)
		return
	}

	users := []User{}
	if err := s.store.GetQuery(c.Request.Context(), &users, limit, offset, byCreation); err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Service) Get(c *gin.Context) {
	id := c.Param("id")
	var found []User
	if err := s.store.GetQuery(c.Request.Context(), &found, 1, 0, byID(id)); err != nil {
		apperr.Abort(c, err)
		return
	}
	if len(found) == 0 {
		apperr.Abort(c, notFound(id))
		return
	}
	c.JSON(http.StatusOK, found[0])
}

func (s *Service) Create(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Abort(c, apperr.FromBinding(err))
		return
	}
	user := req.toUser()
	if err := s.store.InsertOne(c.Request.Context(), &user); err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// CreateMany inserts every user in the body in one transaction.
func (s *Service) CreateMany(c *gin.Context) {
	var reqs []UserRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		apperr.Abort(c, apperr.FromBinding(err))
		return
	}
	if len(reqs) == 0 {
		apperr.Abort(c, apperr.New(apperr.ErrValidation.Code, http.StatusBadRequest, "at least one user is required"))
		return
	}
	users := make([]User, len(reqs))
	for i, r := range reqs {
		users[i] = r.toUser()
	}
	if err := s.store.InsertMany(c.Request.Context(), &users); err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, users)
}

// CreateAuto generates qty random users, 100 when qty is absent.
func (s *Service) CreateAuto(c *gin.Context) {
	qty, err := intQuery(c, "qty", defaultAutoQty)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	if qty < 1 || qty > maxAutoQty {
		apperr.Abort(c, apperr.WithFields(
			apperr.New(apperr.ErrValidation.Code, http.StatusBadRequest, "qty must be between 1 and 1000"),
			map[string]any{"qty": qty},
		))
		return
	}

	users := make([]User, qty)
	for i := range users {
		users[i] = randomUser()
	}
	if err := s.store.InsertMany(c.Request.Context(), &users); err != nil {
		apperr.Abort(c, err)
		return
	}
	s.log.WithField("created_users", len(users)).Info("created users")
	c.JSON(http.StatusCreated, users)
}

func (s *Service) Update(c *gin.Context) {
	var req UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Abort(c, apperr.FromBinding(err))
		return
	}
	values := req.values()
	if len(values) == 0 {
		apperr.Abort(c, apperr.New(apperr.ErrValidation.Code, http.StatusBadRequest, "no fields to update"))
		return
	}

	var user User
	if err := s.store.UpdateOne(c.Request.Context(), &user, c.Param("id"), values); err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Service) Delete(c *gin.Context) {
	if err := s.store.DeleteOne(c.Request.Context(), &User{}, c.Param("id")); err != nil {
		apperr.Abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Codes answers GET /codes?code=200&code=404&description_only=true with the
// matching entries of the status-code table. Unknown codes are left out.
func Codes(c *gin.Context) {
	raw := c.QueryArray("code")
	codes := make([]int, 0, len(raw))
	for _, v := range raw {
		code, err := strconv.Atoi(v)
		if err != nil {
			apperr.Abort(c, apperr.WithFields(
				apperr.New(apperr.ErrValidation.Code, http.StatusBadRequest, "code must be an integer"),
				map[string]any{"code": v},
			))
			return
		}
		codes = append(codes, code)
	}
	descriptionOnly, err := strconv.ParseBool(c.DefaultQuery("description_only", "false"))
	if err != nil {
		apperr.Abort(c, apperr.New(apperr.ErrValidation.Code, http.StatusBadRequest, "description_only must be a boolean"))
		return
	}
	c.JSON(http.StatusOK, httpcodes.GenerateCodeDict(codes, descriptionOnly))
}

func byID(id string) store.Query {
	return func(db *gorm.DB) *gorm.DB { return db.Where("id = ?", id) }
}

func byCreation(db *gorm.DB) *gorm.DB {
	return db.Order("date_created").Order("id")
}

func notFound(id string) error {
	return apperr.WithFields(
		apperr.New(apperr.ErrNotFound.Code, http.StatusNotFound, "user not found"),
		map[string]any{"id": id},
	)
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	v, ok := c.GetQuery(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.WithFields(
			apperr.New(apperr.ErrValidation.Code, http.StatusBadRequest, key+" must be an integer"),
			map[string]any{key: v},
		)
	}
	return n, nil
}

// Seed inserts n random users, as the service does on startup when
// configured to.
func (s *Service) Seed(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	users := make([]User, n)
	for i := range users {
		users[i] = randomUser()
	}
	if err := s.store.InsertMany(ctx, &users); err != nil {
		return err
	}
	s.log.WithField("users", n).Info("seeded users")
	return nil
}
