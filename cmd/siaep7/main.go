// Command siaep7 drives a SIAE fiscal smart card: PIN management,
// transaction counter and balance reads, fiscal seal computation, and
// PKCS#7/S-MIME signing of ticket-emission records.
package main

func main() {
	Main()
}
