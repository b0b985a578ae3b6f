package http

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/dkeye/watchparty/internal/app/orch"
	"github.com/dkeye/watchparty/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type RoomsController struct {
	Orch *orch.Coordinator
}

type createRoomRequest struct {
	HostName string `json:"hostName" binding:"required"`
	VideoURL string `json:"videoUrl" binding:"required"`
}

type roomSummary struct {
	ID             domain.SessionID `json:"id"`
	VideoURL       string           `json:"videoUrl"`
	HostName       string           `json:"hostName"`
	HostOnline     bool             `json:"hostOnline"`
	Viewers        []string         `json:"viewers"`
	ViewerCount    int              `json:"viewerCount"`
	IsPlaying      bool             `json:"isPlaying"`
	CurrentTime    float64          `json:"currentTime"`
	HasSubtitle    bool             `json:"hasSubtitle"`
	ChatMessages   int              `json:"chatMessages"`
	PendingCleanup bool             `json:"pendingCleanup"`
	CreatedAt      time.Time        `json:"createdAt"`
}

func (rc *RoomsController) summarize(s *domain.Session) roomSummary {
	names := make([]string, 0, len(s.Viewers))
	for _, v := range s.Viewers {
		names = append(names, v.Name)
	}
	return roomSummary{
		ID:             s.ID,
		VideoURL:       s.VideoURL,
		HostName:       s.HostName,
		HostOnline:     s.HasHost(),
		Viewers:        names,
		ViewerCount:    len(s.Viewers),
		IsPlaying:      s.Playback.IsPlaying,
		CurrentTime:    s.Playback.CurrentTime,
		HasSubtitle:    s.Subtitle != nil,
		ChatMessages:   s.Chat.Len(),
		PendingCleanup: rc.Orch.PendingCleanup(s.ID),
		CreatedAt:      s.CreatedAt,
	}
}

func (rc *RoomsController) Create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hostName and videoUrl are required"})
		return
	}
	s, err := rc.Orch.OpenSession(req.HostName, req.VideoURL)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Info().Str("module", "adapters.http").Str("sid", string(s.ID)).Msg("room opened")
	c.JSON(http.StatusCreated, rc.summarize(s))
}

func (rc *RoomsController) List(c *gin.Context) {
	sessions := rc.Orch.List()
	slices.SortFunc(sessions, func(a, b *domain.Session) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	out := make([]roomSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, rc.summarize(s))
	}
	c.JSON(http.StatusOK, gin.H{"rooms": out})
}

func (rc *RoomsController) Get(c *gin.Context) {
	s, err := rc.Orch.Get(domain.ParseSessionID(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": orch.MsgStreamNotFound})
		return
	}
	c.JSON(http.StatusOK, rc.summarize(s))
}

func (rc *RoomsController) Delete(c *gin.Context) {
	sid := domain.ParseSessionID(c.Param("id"))
	if err := rc.Orch.DeleteSession(sid); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": orch.MsgStreamNotFound})
		return
	}
	log.Info().Str("module", "adapters.http").Str("sid", string(sid)).Msg("room deleted")
	c.Status(http.StatusNoContent)
}
