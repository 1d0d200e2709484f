// Package leaderboard derives per-profile engagement statistics and orders
// profiles by composite score.
package leaderboard

import "fmt"

// Weights are the points each engagement signal is worth.
type Weights struct {
	Post    int `json:"post"`
	Like    int `json:"like"`
	Comment int `json:"comment"`
	View    int `json:"view"`
}

// DefaultWeights returns the documented scoring policy.
func DefaultWeights() Weights {
	return Weights{Post: 10, Like: 5, Comment: 3, View: 1}
}

// Validate enforces non-negative weights ordered post > like > comment > view.
func (w Weights) Validate() error {
	if w.Post < 0 || w.Like < 0 || w.Comment < 0 || w.View < 0 {
		return fmt.Errorf("score weights must be non-negative: %+v", w)
	}
	if !(w.Post > w.Like && w.Like > w.Comment && w.Comment > w.View) {
		return fmt.Errorf("score weights must be ordered post > like > comment > view: %+v", w)
	}
	return nil
}

// OrDefault returns w when it is valid and the defaults otherwise.
func (w Weights) OrDefault() (Weights, error) {
	if err := w.Validate(); err != nil {
		return DefaultWeights(), err
	}
	return w, nil
}
