// elSegment: a high-performance tool for modeling genomic copy-number segments.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elsegment/blob/master/LICENSE.txt>.

package mcmc

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// A Parameter pairs a global model parameter name with the posterior
// summary of that parameter.
type Parameter struct {
	Name    string
	Summary PosteriorSummary
}

// decimal format for posterior summary values in parameter tables
const doubleFormat = "%6.6f"

// WriteParameters writes a global-parameter table to the given file.
// Each row pairs a parameter name with its posterior summary. A
// failure to create the output file is reported as a could-not-create
// error naming the destination.
func WriteParameters(filename string, parameters []Parameter) (err error) {
	pathname, err := filepath.Abs(filename)
	if err != nil {
		return err
	}
	file, err := os.Create(pathname)
	if err != nil {
		return fmt.Errorf("could not create output file %v: %v", filename, err)
	}
	defer func() {
		nerr := file.Close()
		if err == nil {
			err = nerr
		}
	}()
	output := bufio.NewWriter(file)
	if _, err = fmt.Fprintln(output, "PARAMETER_NAME\tPOSTERIOR_MODE\tPOSTERIOR_MEDIAN\tPOSTERIOR_10\tPOSTERIOR_90"); err != nil {
		return err
	}
	for _, parameter := range parameters {
		summary := parameter.Summary
		if _, err = fmt.Fprintf(output, "%v\t"+doubleFormat+"\t"+doubleFormat+"\t"+doubleFormat+"\t"+doubleFormat+"\n",
			parameter.Name, summary.Mode, summary.Median, summary.Decile10, summary.Decile90); err != nil {
			return err
		}
	}
	return output.Flush()
}
