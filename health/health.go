// Package health mounts the system health endpoints: liveness, uptime and a
// summary of the live heap.
package health

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/adonese/apikit/httpcodes"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const heapDumpSize = 10

var started = time.Now()

// Responses documents the error answers every health endpoint may give.
var Responses = httpcodes.GenerateCodeDict([]int{400, 405, 500}, false)

// Uptime is the process age split into calendar units.
type Uptime struct {
	Days    int     `json:"Days"`
	Hours   int     `json:"Hours"`
	Minutes int     `json:"Minutes"`
	Seconds float64 `json:"Seconds"`
}

// HeapSite is one allocation site of the live heap.
type HeapSite struct {
	Filename string `json:"filename"`
	Lineno   int    `json:"lineno"`
	Size     int64  `json:"size"`
	Count    int64  `json:"count"`
}

// Register mounts /status, /uptime and /heapdump on rg. Nothing is mounted
// when enabled is false. heapGuards run before the heap dump handler.
func Register(rg *gin.RouterGroup, enabled bool, log *logrus.Logger, heapGuards ...gin.HandlerFunc) {
	if !enabled {
		return
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	rg.GET("/status", func(c *gin.Context) {
		log.Info("health status of up returned")
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
	rg.GET("/uptime", func(c *gin.Context) {
		up := since(started, time.Now())
		log.WithFields(logrus.Fields{
			"days":    up.Days,
			"hours":   up.Hours,
			"minutes": up.Minutes,
			"seconds": up.Seconds,
		}).Info("uptime")
		c.JSON(http.StatusOK, gin.H{"uptime": up})
	})
	rg.GET("/heapdump", append(heapGuards, func(c *gin.Context) {
		sites, err := heapDump(heapDumpSize)
		if err != nil {
			log.WithError(err).Error("error in get_heapdump")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Error in get_heapdump: %v", err)})
			return
		}
		log.WithField("sites", len(sites)).Debug("heap dump returned")
		c.JSON(http.StatusOK, gin.H{"heap_dump": sites})
	})...)
}

func since(start, now time.Time) Uptime {
	d := now.Sub(start)
	if d < 0 {
		d = 0
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	return Uptime{
		Days:    int(days),
		Hours:   int(hours),
		Minutes: int(minutes),
		Seconds: math.Round(d.Seconds()*100) / 100,
	}
}

// heapDump returns the n allocation sites holding the most in-use bytes,
// taken from the runtime heap profile. Sites with nothing live are left out.
func heapDump(n int) ([]HeapSite, error) {
	if runtime.MemProfileRate == 0 {
		return nil, errors.New("heap profiling is disabled")
	}
	runtime.GC()

	var records []runtime.MemProfileRecord
	size, _ := runtime.MemProfile(nil, false)
	for {
		records = make([]runtime.MemProfileRecord, size+16)
		var ok bool
		size, ok = runtime.MemProfile(records, false)
		if ok {
			records = records[:size]
			break
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].InUseBytes() > records[j].InUseBytes()
	})
	if len(records) > n {
		records = records[:n]
	}

	sites := make([]HeapSite, 0, len(records))
	for _, r := range records {
		frame, _ := runtime.CallersFrames(r.Stack()).Next()
		sites = append(sites, HeapSite{
			Filename: frame.File,
			Lineno:   frame.Line,
			Size:     r.InUseBytes(),
			Count:    r.InUseObjects(),
		})
	}
	return sites, nil
}
