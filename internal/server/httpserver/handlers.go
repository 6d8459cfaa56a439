package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/pup/internal/common"
	"github.com/dmitrijs2005/pup/internal/server/models"
	"github.com/dmitrijs2005/pup/internal/server/services"
	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type admireRequest struct {
	TargetUserID string `json:"targetUserId" binding:"required"`
	Action       string `json:"action" binding:"required,oneof=admire pass"`
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, err.Error())
}

func (s *Server) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err))
		return
	}

	res, err := s.users.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.setTokenCookies(c, res.Tokens)
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": res.User})
}

func (s *Server) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err))
		return
	}

	res, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.setTokenCookies(c, res.Tokens)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": res.User})
}

func (s *Server) refresh(c *gin.Context) {
	token := tokenCookie(c, RefreshCookie)
	if token == "" {
		s.fail(c, common.ErrSessionExpired)
		return
	}

	pair, err := s.users.Refresh(c.Request.Context(), token)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// logout always clears the cookies. Revocation uses whichever token still
// identifies the user.
func (s *Server) logout(c *gin.Context) {
	ctx := c.Request.Context()

	var err error
	revoked := false
	if access := tokenCookie(c, AccessCookie); access != "" {
		if user, checkErr := s.users.CheckAccess(ctx, access); checkErr == nil {
			err = s.users.Logout(ctx, user.ID)
			revoked = true
		}
	}
	if refresh := tokenCookie(c, RefreshCookie); !revoked && refresh != "" {
		err = s.users.LogoutWithRefresh(ctx, refresh)
	}

	s.clearTokenCookies(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) session(c *gin.Context) {
	user, err := s.users.Whoami(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (s *Server) admire(c *gin.Context) {
	var req admireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err))
		return
	}
	mutual, err := s.matches.Act(c.Request.Context(), currentUser(c), req.TargetUserID, models.Kind(req.Action))
	if err != nil {
		s.fail(c, err)
		return
	}

	msg := "recorded"
	if mutual {
		msg = "it's a match"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "isMutualMatch": mutual, "message": msg})
}

func (s *Server) interactions(c *gin.Context) {
	got, err := s.matches.Interactions(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"admirers": got.Admirers,
		"admired":  got.Admired,
		"matches":  got.Matches,
	})
}

func (s *Server) browse(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.fail(c, fmt.Errorf("%w: limit must be a positive number", common.ErrValidation))
			return
		}
		limit = n
	}
	withScores, _ := strconv.ParseBool(c.Query("scores"))

	filter := models.BrowseFilter{
		Domain:    c.Query("domain"),
		Archetype: c.Query("archetype"),
		Modality:  c.Query("modality"),
	}

	page, err := s.matches.Browse(c.Request.Context(), currentUser(c), c.Query("cursor"), limit, filter, withScores)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profiles": page.Profiles, "nextCursor": page.NextCursor})
}

func (s *Server) getProfile(c *gin.Context) {
	v, err := s.profiles.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse(v))
}

func (s *Server) updateProfile(c *gin.Context) {
	var patch services.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.fail(c, badRequest(err))
		return
	}

	v, err := s.profiles.Update(c.Request.Context(), currentUser(c), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse(v))
}

func (s *Server) photoUploadURL(c *gin.Context) {
	key, url, err := s.profiles.PhotoUploadURL(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "key": key, "uploadUrl": url})
}

func profileResponse(v *services.ProfileView) gin.H {
	return gin.H{
		"success":       true,
		"profile":       v.Profile,
		"completion":    v.Completion,
		"missingFields": v.MissingFields,
		"photoUrls":     v.PhotoURLs,
	}
}
