package common

const JadeVersion = "0.2.4"
