package model

const (
	MinShapeSize      = 32
	MinImageShapeSize = 48
)

type ShapeConfig struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Shapes map[string]ShapeConfig

// ShapeOr returns the stored override for id, or def when none is stored.
func (s Shapes) ShapeOr(id string, def ShapeConfig) ShapeConfig {
	if cfg, ok := s[id]; ok {
		return cfg
	}
	return def
}

// Clamp enforces a minimum width and height. Position is left untouched.
func (c ShapeConfig) Clamp(minSize float64) ShapeConfig {
	if c.Width < minSize {
		c.Width = minSize
	}
	if c.Height < minSize {
		c.Height = minSize
	}
	return c
}

// With returns a copy of s with id set to cfg.
func (s Shapes) With(id string, cfg ShapeConfig) Shapes {
	out := make(Shapes, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[id] = cfg
	return out
}
