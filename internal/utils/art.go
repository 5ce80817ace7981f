package utils

// Art is the banner the CLI prints on startup and login.
const Art = "" +
	"  __            _            _ \n" +
	" / _| ___  _ __| | _____  __| |\n" +
	"| |_ / _ \\| '__| |/ / _ \\/ _` |\n" +
	"|  _| (_) | |  |   <  __/ (_| |\n" +
	"|_|  \\___/|_|  |_|\\_\\___|\\__,_|"
