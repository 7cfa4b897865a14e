package main

import (
	hueweb "github.com/kradalby/hue-web"
)

func main() {
	hueweb.Main()
}
