/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

package main

/*****************************************************************************************************************/

import (
	"os"
)

/*****************************************************************************************************************/

func main() {
	os.Exit(Execute())
}

/*****************************************************************************************************************/
