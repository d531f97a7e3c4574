package units

import (
	"fmt"
	"math/rand"
)

var firstNames = []string{
	"David", "Dale", "Robert", "Lucy", "Ashley", "Mia", "JC", "Paul", "Heisenberg",
	"John", "Kyle", "Sarah", "Dylan", "Connor", "Hawk", "Laura", "Bobby", "Jane",
}

var lastNames = []string{
	"Cooper", "Yang", "Smith", "Denton", "Simons", "Rivers", "Savage", "Connor",
	"Reese", "Rhodes", "Zhou", "Jensen", "Palmer", "Mason", "Johnson", "Briggs",
}

func squaddieName(rng *rand.Rand) string {
	return firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
}

func machineSerial(rng *rand.Rand) string {
	return fmt.Sprintf("SK%05d", rng.Intn(100000))
}
