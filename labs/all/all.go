// Package all registers every lab.
package all

import (
	_ "github.com/sarchlab/simlab/labs/aloha"      // registers aloha
	_ "github.com/sarchlab/simlab/labs/callcenter" // registers callcenter
	_ "github.com/sarchlab/simlab/labs/mm1"        // registers mm1
	_ "github.com/sarchlab/simlab/labs/offload"    // registers offload
	_ "github.com/sarchlab/simlab/labs/switchnet"  // registers switchnet
)
