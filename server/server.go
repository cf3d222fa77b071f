// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

// Package server hosts interactive map components behind a JSON API.
package server

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/mapplaces/component"
	"github.com/jcodagnone/mapplaces/geocode"
	"github.com/jcodagnone/mapplaces/loader"
	"github.com/jcodagnone/mapplaces/places"
)

// Options configures a Server.
type Options struct {
	// APIKey serves /api/geocode, components bring their own key
	APIKey string

	// Cache stores successful lookups, optional
	Cache geocode.CacheRepository

	HTTPClient     *http.Client
	Loader         *loader.Loader
	MaxConcurrency int

	// NewGeocoder overrides the Google Maps geocoder (tests)
	NewGeocoder func(apiKey, language string) geocode.Geocoder
}

type instance struct {
	component   *component.Component
	host        *recordingHost
	renderError error
}

// Server keeps the component instances created through the API.
type Server struct {
	options Options

	mu        sync.RWMutex
	instances map[string]*instance
}

// NewServer creates a server.
func NewServer(options Options) *Server {
	if options.Loader == nil {
		options.Loader = loader.New(options.HTTPClient)
	}

	return &Server{
		options:   options,
		instances: make(map[string]*instance),
	}
}

func (s *Server) geocoderFor(apiKey, language string) geocode.Geocoder {
	var g geocode.Geocoder
	if s.options.NewGeocoder != nil {
		g = s.options.NewGeocoder(apiKey, language)
	} else {
		g = geocode.NewGoogleMapsGeocoder(geocode.GoogleMapsOptions{
			APIKey:     apiKey,
			Language:   language,
			HTTPClient: s.options.HTTPClient,
		})
	}

	if s.options.Cache != nil {
		g = geocode.NewCachedGeocoder(g, s.options.Cache, language)
	}

	return g
}

// Routes registers the API on r.
func (s *Server) Routes(r gin.IRouter) {
	r.POST("/api/components", s.createComponent)
	r.GET("/api/components", s.listComponents)
	r.GET("/api/components/:id", s.getComponent)
	r.POST("/api/components/:id/markers/:marker_id/click", s.clickMarker)
	r.DELETE("/api/components/:id", s.deleteComponent)
	r.GET("/api/geocode", s.geocode)
}

// Run serves the API on addr.
func (s *Server) Run(addr string) error {
	r := gin.Default()
	s.Routes(r)

	return r.Run(addr)
}

type componentView struct {
	ID string `json:"id"`
	component.Snapshot
	Alerts      []string `json:"alerts"`
	RenderError string   `json:"render_error,omitempty"`
}

func (s *Server) view(id string, in *instance) componentView {
	v := componentView{
		ID:       id,
		Snapshot: in.component.Snapshot(),
		Alerts:   in.host.Alerts(),
	}

	if in.renderError != nil {
		v.RenderError = in.renderError.Error()
	}

	return v
}

func (s *Server) lookup(ctx *gin.Context) (string, *instance, bool) {
	id := ctx.Param("id")

	s.mu.RLock()
	in, ok := s.instances[id]
	s.mu.RUnlock()

	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "component not found"})
	}

	return id, in, ok
}

func (s *Server) createComponent(ctx *gin.Context) {
	cfg, err := component.ParseConfig(ctx.Request.Body, "json")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	host := &recordingHost{}
	c := component.New(cfg, host, component.Options{
		Loader: s.options.Loader,
		NewGeocoder: func(cfg component.Config) geocode.Geocoder {
			return s.geocoderFor(cfg.APIKey, cfg.Language)
		},
		MaxConcurrency: s.options.MaxConcurrency,
	})

	if err := c.Prepare(); err != nil {
		var cfgErr *component.ConfigurationError
		if errors.As(err, &cfgErr) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "alerts": host.Alerts()})

			return
		}

		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	id := c.MapID()
	host.id = id
	in := &instance{component: c, host: host}
	in.renderError = c.Render(ctx.Request.Context())

	s.mu.Lock()
	s.instances[id] = in
	s.mu.Unlock()

	ctx.JSON(http.StatusCreated, s.view(id, in))
}

func (s *Server) listComponents(ctx *gin.Context) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.instances))

	for id := range s.instances {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)

	ctx.JSON(http.StatusOK, gin.H{"components": ids})
}

func (s *Server) getComponent(ctx *gin.Context) {
	id, in, ok := s.lookup(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, s.view(id, in))
}

func (s *Server) clickMarker(ctx *gin.Context) {
	id, in, ok := s.lookup(ctx)
	if !ok {
		return
	}

	window, err := in.component.Click(ctx.Param("marker_id"))

	switch {
	case errors.Is(err, places.ErrUnknownMarker):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return
	case errors.Is(err, component.ErrMapUnavailable):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})

		return
	case err != nil:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"info_window": window,
		"component":   s.view(id, in),
	})
}

func (s *Server) deleteComponent(ctx *gin.Context) {
	id, _, ok := s.lookup(ctx)
	if !ok {
		return
	}

	s.mu.Lock()
	delete(s.instances, id)
	s.mu.Unlock()

	ctx.Status(http.StatusNoContent)
}

type geocodeResult struct {
	geocode.Result
	Confidence string `json:"confidence"`
}

func (s *Server) geocode(ctx *gin.Context) {
	address := strings.TrimSpace(ctx.Query("address"))
	if address == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "address query parameter is required"})

		return
	}

	if s.options.APIKey == "" {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "geocoding is not configured"})

		return
	}

	language := ctx.DefaultQuery("language", component.DefaultLanguage)

	results, err := s.geocoderFor(s.options.APIKey, language).Geocode(ctx.Request.Context(), address)
	if err != nil {
		if geocode.IsNotFoundError(err) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

			return
		}

		ctx.JSON(http.StatusBadGateway, gin.H{
			"error":  err.Error(),
			"reason": geocode.FailureReasonOf(err).String(),
		})

		return
	}

	out := make([]geocodeResult, 0, len(results))
	for _, r := range results {
		out = append(out, geocodeResult{Result: r, Confidence: r.Confidence()})
	}

	ctx.JSON(http.StatusOK, gin.H{"address": address, "results": out})
}
