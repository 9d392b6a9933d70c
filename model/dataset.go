package model

import (
	"go-ml.dev/pkg/logp/dataset"
)

/*
Dataset is an abstraction of some source of a data to feed hungry models
*/
type Dataset struct {
	Source     *dataset.Dataset // training samples
	Validation *dataset.Dataset // optional, equal to Source if nil
}

/*
Test returns the samples used to evaluate the model
*/
func (d Dataset) Test() *dataset.Dataset {
	if d.Validation != nil {
		return d.Validation
	}
	return d.Source
}
