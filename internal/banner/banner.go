package banner

import (
	"buyloop/internal/tui/styles"
)

const ascii = `
██████╗ ██╗   ██╗██╗   ██╗██╗      ██████╗  ██████╗ ██████╗ 
██╔══██╗██║   ██║╚██╗ ██╔╝██║     ██╔═══██╗██╔═══██╗██╔══██╗
██████╔╝██║   ██║ ╚████╔╝ ██║     ██║   ██║██║   ██║██████╔╝
██╔══██╗██║   ██║  ╚██╔╝  ██║     ██║   ██║██║   ██║██╔═══╝ 
██████╔╝╚██████╔╝   ██║   ███████╗╚██████╔╝╚██████╔╝██║     
╚═════╝  ╚═════╝    ╚═╝   ╚══════╝ ╚═════╝  ╚═════╝ ╚═╝     `

const signature = "launch trade sniper for hypurr.fun"

func GetString() string {
	return "\n" + styles.Banner.Render(ascii) + "\n" + styles.Signature.Render(signature) + "\n"
}
