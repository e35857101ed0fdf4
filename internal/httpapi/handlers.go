package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := service.Login(s.db, req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	token, err := service.IssueToken(s.secret, u.ID, s.ttl, s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, User: u})
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (s *Server) requireAdmin(c *gin.Context) bool {
	if err := service.RequireAdmin(currentUser(c)); err != nil {
		s.fail(c, err)
		return false
	}
	return true
}

func (s *Server) requirePatientAccess(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := service.CanAccessPatient(currentUser(c), id); err != nil {
		s.fail(c, err)
		return "", false
	}
	return id, true
}

func (s *Server) listPatients(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := service.ListPatients(s.db, service.PatientFilter{Search: c.Query("q"), Limit: limit})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// createPatient accepts an intake document: basics plus optional history, measurement and lab.
func (s *Server) createPatient(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in, err := service.ParseIntake(raw)
	if err != nil {
		s.fail(c, err)
		return
	}
	res, err := service.CreatePatientFromIntake(s.db, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.log.Info("patient created", zap.String("patient_id", res.PatientID))
	c.JSON(http.StatusCreated, res)
}

func (s *Server) getPatient(c *gin.Context) {
	id, ok := s.requirePatientAccess(c)
	if !ok {
		return
	}
	p, err := service.GetPatient(s.db, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type patientPatchRequest struct {
	Name          *string                `json:"name"`
	Email         *string                `json:"email"`
	Phone         *string                `json:"phone"`
	DOB           *string                `json:"dob"`
	Gender        *string                `json:"gender"`
	Occupation    *string                `json:"occupation"`
	MaritalStatus *string                `json:"maritalStatus"`
	Address       *string                `json:"address"`
	AvatarURL     *string                `json:"avatarUrl"`
	Lifestyle     *model.Lifestyle       `json:"lifestyle"`
	Clinical      *model.ClinicalHistory `json:"clinical"`
}

func (s *Server) updatePatient(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var req patientPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")
	err := service.UpdatePatient(s.db, id, service.PatientPatch{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		DOB:           req.DOB,
		Gender:        req.Gender,
		Occupation:    req.Occupation,
		MaritalStatus: req.MaritalStatus,
		Address:       req.Address,
		AvatarURL:     req.AvatarURL,
		Lifestyle:     req.Lifestyle,
		Clinical:      req.Clinical,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	p, err := service.GetPatient(s.db, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deletePatient(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if err := service.DeletePatient(s.db, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type noteRequest struct {
	Date            string           `json:"date"`
	Objective       string           `json:"objective"`
	Observations    string           `json:"observations"`
	Images          []string         `json:"images"`
	NextAppointment string           `json:"nextAppointment"`
	Evolution       *model.Evolution `json:"evolution"`
}

func (s *Server) addNote(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := service.AddNote(s.db, c.Param("id"), service.NoteInput{
		Date:            req.Date,
		Objective:       req.Objective,
		Observations:    req.Observations,
		Images:          req.Images,
		NextAppointment: req.NextAppointment,
		Evolution:       req.Evolution,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	n, _, err := service.GetNote(s.db, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

type anthropometryRequest struct {
	Date          string              `json:"date"`
	Weight        float64             `json:"weight"`
	WeightUnit    string              `json:"weightUnit"`
	Height        float64             `json:"height"`
	HeightUnit    string              `json:"heightUnit"`
	Circumference model.Circumference `json:"circumference"`
	Folds         model.Folds         `json:"folds"`
	Activity      float64             `json:"activity"`
	Notes         string              `json:"notes"`
}

func (s *Server) addAnthropometry(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var req anthropometryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := service.AddAnthropometry(s.db, c.Param("id"), service.AnthropometryInput{
		Date:          req.Date,
		Weight:        req.Weight,
		WeightUnit:    req.WeightUnit,
		Height:        req.Height,
		HeightUnit:    req.HeightUnit,
		Circumference: req.Circumference,
		Folds:         req.Folds,
		Activity:      req.Activity,
		Notes:         req.Notes,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (s *Server) listAdherence(c *gin.Context) {
	id, ok := s.requirePatientAccess(c)
	if !ok {
		return
	}
	items, err := service.ListAdherence(s.db, id, c.Query("from"), c.Query("to"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) setAdherence(c *gin.Context) {
	id, ok := s.requirePatientAccess(c)
	if !ok {
		return
	}
	var checks model.AdherenceChecks
	if err := c.ShouldBindJSON(&checks); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := service.SetAdherence(s.db, id, c.Param("date"), checks)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) dashboard(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	d, err := service.BuildDashboard(s.db, s.now(), c.Query("date"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) getTheme(c *gin.Context) {
	t, err := service.GetTheme(s.db)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) putTheme(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var t model.ThemeConfig
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := service.SetTheme(s.db, t); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) export(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	snap, err := service.ExportSnapshot(s.db)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) importSnapshot(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := service.ParseSnapshot(raw)
	if err != nil {
		s.fail(c, err)
		return
	}
	dryRun, _ := strconv.ParseBool(c.Query("dryRun"))
	report, err := service.ImportSnapshot(s.db, snap, service.ImportOptions{
		Mode:   service.ImportMode(c.Query("mode")),
		DryRun: dryRun,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	s.log.Info("snapshot imported",
		zap.String("mode", string(report.Mode)),
		zap.Bool("dry_run", report.DryRun),
		zap.Int("patients", report.Patients),
		zap.Int("users", report.Users))
	c.JSON(http.StatusOK, report)
}
