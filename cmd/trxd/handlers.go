package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dougsko/trx8/pkg/display"
	"github.com/dougsko/trx8/pkg/engine"
	"github.com/dougsko/trx8/pkg/synth"
	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v2"
)

// handleHome lists the API
func (d *TRXDaemon) handleHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "trxd",
		"version": engine.Version,
		"endpoints": []string{
			"GET /api/v1/status",
			"GET /api/v1/bands",
			"POST /api/v1/key",
			"POST /api/v1/tune",
			"POST /api/v1/save",
			"GET /api/v1/codec",
			"GET /api/v1/config",
			"GET /ws",
		},
	})
}

// handleGetStatus returns the radio status via socket
func (d *TRXDaemon) handleGetStatus(c *gin.Context) {
	status, err := d.socketClient.GetStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "running",
		"radio":   status,
		"clients": d.hub.Clients(),
	})
}

// handleGetBands returns the band plan with the stored VFO frequencies
func (d *TRXDaemon) handleGetBands(c *gin.Context) {
	bands, err := d.socketClient.GetBands()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bands": bands,
		"count": len(bands),
	})
}

// handlePressKey queues a keypad code
func (d *TRXDaemon) handlePressKey(c *gin.Context) {
	var req struct {
		Code *int `json:"code" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	command, err := d.socketClient.PressKey(*req.Code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "queued",
		"code":    *req.Code,
		"command": command,
	})
}

// handleTune turns the encoder by a number of pulses
func (d *TRXDaemon) handleTune(c *gin.Context) {
	var req struct {
		Pulses    int64 `json:"pulses" binding:"required"`
		Direction int   `json:"direction"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Without a direction the sign of pulses decides
	if req.Direction == 0 {
		req.Direction = 1
		if req.Pulses < 0 {
			req.Pulses, req.Direction = -req.Pulses, -1
		}
	}

	if err := d.socketClient.Tune(req.Pulses, req.Direction); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"pulses": req.Pulses,
	})
}

// handleSave writes all VFO frequencies and the current VFO to the EEPROM
func (d *TRXDaemon) handleSave(c *gin.Context) {
	if err := d.socketClient.Save(); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "queued",
	})
}

// handleCodec shows what the synthesizers would be sent for a VFO and LO
// frequency. Both default to the current radio state.
func (d *TRXDaemon) handleCodec(c *gin.Context) {
	status, err := d.socketClient.GetStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	freq, err := queryFrequency(c, "frequency", status.Frequency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lo := status.LO[0]
	if status.Sideband == "USB" {
		lo = status.LO[1]
	}
	lo, err = queryFrequency(c, "lo", lo)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	radio := d.config.Radio
	c.JSON(http.StatusOK, gin.H{
		"dds":       synth.ReportDDS(freq, radio.InterFrequency, radio.DDSClock),
		"pll":       synth.ReportPLL(lo, float64(radio.CrystalFreq), radio.PLLRatio),
		"frequency": display.FormatFrequency(freq),
		"lo":        display.FormatFrequencySI(lo),
	})
}

func queryFrequency(c *gin.Context, key string, fallback uint32) (uint32, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return uint32(v), nil
}

// handleGetConfig returns the running configuration
func (d *TRXDaemon) handleGetConfig(c *gin.Context) {
	// Round trip through YAML so the keys match the config file
	yamlData, err := yaml.Marshal(d.config)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("failed to marshal config: %v", err),
		})
		return
	}

	var yamlConfig interface{}
	if err := yaml.Unmarshal(yamlData, &yamlConfig); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("failed to unmarshal config: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"path":   d.configPath,
		"config": convertYamlToJson(yamlConfig),
	})
}

// convertYamlToJson converts YAML map[interface{}]interface{} to JSON-compatible map[string]interface{}
func convertYamlToJson(i interface{}) interface{} {
	switch x := i.(type) {
	case map[interface{}]interface{}:
		m2 := map[string]interface{}{}
		for k, v := range x {
			m2[fmt.Sprint(k)] = convertYamlToJson(v)
		}
		return m2
	case []interface{}:
		for i, v := range x {
			x[i] = convertYamlToJson(v)
		}
	}
	return i
}
