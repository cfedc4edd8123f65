package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/eventpress"
	"github.com/nfrund/eventpress/internal/topicmgr"
)

// RegisterRoutes sets up the admin routes.
func (s *Server) RegisterRoutes() {
	s.E.GET("/healthz", s.health)
	s.E.GET("/topics", s.listTopics)
	s.E.PUT("/topics/valve", s.switchValve)
	s.E.DELETE("/topics", s.removeTopic)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listTopics(c echo.Context) error {
	topics := s.bus.Topics()
	if topics == nil {
		topics = []eventpress.TopicInfo{}
	}
	return c.JSON(http.StatusOK, topics)
}

func (s *Server) switchValve(c echo.Context) error {
	path := c.QueryParam("path")
	if err := topicmgr.ValidateForPublish(path); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	open, err := strconv.ParseBool(c.QueryParam("open"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "open must be a boolean")
	}

	if err := s.bus.SwitchValve(path, open); err != nil {
		return topicStatus(err)
	}
	s.logger.Info("Valve switched", "topic", path, "open", open)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) removeTopic(c echo.Context) error {
	path := c.QueryParam("path")
	if err := s.bus.Remove(path); err != nil {
		return topicStatus(err)
	}
	s.logger.Info("Topic removed", "topic", path)
	return c.NoContent(http.StatusNoContent)
}

// topicStatus maps bus errors onto HTTP errors. Anything unrecognised is
// left for the error handler to report as a 500.
func topicStatus(err error) error {
	switch {
	case topicmgr.IsType(err, topicmgr.ErrorInvalidTopic):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case topicmgr.IsType(err, topicmgr.ErrorTopicNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case topicmgr.IsType(err, topicmgr.ErrorValveDisabled):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case topicmgr.IsType(err, topicmgr.ErrorNotInitialized), topicmgr.IsType(err, topicmgr.ErrorClosed):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return err
	}
}
