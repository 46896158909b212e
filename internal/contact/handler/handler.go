package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/contacthub/contacthub/internal/contact"
	"github.com/contacthub/contacthub/internal/contact/service"
)

// RegisterContactRoutes mounts the contact API. When auth is non-nil it is
// applied to the mutating routes only; reads stay open.
func RegisterContactRoutes(r *gin.Engine, svc *service.Service, auth gin.HandlerFunc) {
	mut := gin.HandlersChain{}
	if auth != nil {
		mut = append(mut, auth)
	}

	r.POST("/contact/new", append(mut, func(c *gin.Context) {
		var doc contact.Contact
		if err := c.ShouldBindJSON(&doc); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, err := svc.Insert(c.Request.Context(), doc); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})...)

	r.GET("/contacts", func(c *gin.Context) {
		ref, ok := requestRevision(c)
		if !ok {
			return
		}
		list, err := svc.List(c.Request.Context(), ref)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.POST("/search", func(c *gin.Context) {
		var terms []contact.QueryTerm
		if err := c.ShouldBindJSON(&terms); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ref, ok := requestRevision(c)
		if !ok {
			return
		}
		results, err := svc.Search(c.Request.Context(), terms, ref)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, results)
	})

	r.POST("/search/history", func(c *gin.Context) {
		var terms []contact.QueryTerm
		if err := c.ShouldBindJSON(&terms); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		deleted := c.Query("deleted") == "true"
		results, err := svc.SearchAllTime(c.Request.Context(), terms, deleted)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, results)
	})

	r.GET("/contact/:key", func(c *gin.Context) {
		key, ok := requestKey(c)
		if !ok {
			return
		}
		ref, ok := requestRevision(c)
		if !ok {
			return
		}
		doc, hash, err := svc.Get(c.Request.Context(), key, ref)
		if err != nil {
			fail(c, err)
			return
		}
		// the hash doubles as an entity tag for If-Match on PATCH/DELETE
		c.Header("ETag", `"`+string(hash)+`"`)
		c.JSON(http.StatusOK, doc)
	})

	r.GET("/contact/:key/history", func(c *gin.Context) {
		key, ok := requestKey(c)
		if !ok {
			return
		}
		ref, ok := requestRevision(c)
		if !ok {
			return
		}
		embed := c.Query("embed") == "true"
		entries, err := svc.History(c.Request.Context(), key, ref, embed)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	})

	r.PATCH("/contact/:key", append(mut, func(c *gin.Context) {
		key, ok := requestKey(c)
		if !ok {
			return
		}
		var doc contact.Contact
		if err := c.ShouldBindJSON(&doc); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err := svc.Update(c.Request.Context(), key, doc, expectedHash(c))
		if errors.Is(err, contact.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})...)

	r.DELETE("/contact/:key", append(mut, func(c *gin.Context) {
		key, ok := requestKey(c)
		if !ok {
			return
		}
		err := svc.Delete(c.Request.Context(), key, expectedHash(c))
		if errors.Is(err, contact.ErrConflict) {
			// the caller's view of the contact is stale; GONE matches the
			// original client contract for failed deletes
			c.JSON(http.StatusGone, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})...)
}

// requestKey parses the :key path parameter. On failure it writes the error
// response and returns ok=false.
func requestKey(c *gin.Context) (uint64, bool) {
	key, err := strconv.ParseUint(c.Param("key"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key must be an integer"})
		return 0, false
	}
	return key, true
}

// requestRevision resolves the revision_id / revision_timestamp query
// parameters. revision_id wins when both are present.
func requestRevision(c *gin.Context) (contact.RevisionRef, bool) {
	var id uint64
	if raw := c.Query("revision_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "revision_id must be an integer"})
			return contact.RevisionRef{}, false
		}
		id = parsed
	}
	ref, err := contact.ResolveRevision(id, c.Query("revision_timestamp"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return contact.RevisionRef{}, false
	}
	return ref, true
}

// expectedHash reads the optional If-Match precondition. Nil means the
// mutation is unconditional.
func expectedHash(c *gin.Context) *contact.ContentHash {
	raw := strings.Trim(c.GetHeader("If-Match"), `"`)
	if raw == "" {
		return nil
	}
	h := contact.ContentHash(raw)
	return &h
}

// fail maps the service taxonomy to status codes; conflict handling is
// method-specific and done at the call sites.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, contact.ErrInvalidContact),
		errors.Is(err, contact.ErrBadRevisionFormat),
		errors.Is(err, contact.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, contact.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
