/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/
package main

import (
	"github.com/credcheck/credcheck/pkg/cmd/root"
)

func main() {
	root.Execute()
}
